package excel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets 文件打开成功但没有任何工作表
var ErrNoSheets = errors.New("excel file has no sheets")

// ReadRows 把 .xlsx 字节流读成行主序矩阵（取第一个工作表）
// 空单元格为 ""；调和引擎只依赖这一形状，不依赖 excelize API
func ReadRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}
