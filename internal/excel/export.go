package excel

import (
	"bytes"
	"fmt"

	"asbuilt-data/internal/domain"

	"github.com/xuri/excelize/v2"
)

// exportHeader 汇总导出表头（每族一个 sheet，列集合相同）
var exportHeader = []string{
	"Label",
	"Identity Token",
	"Hostname",
	"MAC",
	"Model",
	"Resolution",
	"Linear Size",
	"Section",
	"Probe Count",
	"Patch Port",
	"Switch Port",
	"Contract Ref",
	"Frontal Photo",
	"Player Photo",
	"IP Config Photo",
}

var sheetTitles = map[domain.Family]string{
	domain.FamilyScreens:    "Screens",
	domain.FamilyBanners:    "Banners",
	domain.FamilyTurnomatic: "Turnomatic",
	domain.FamilyWelcomer:   "Welcomer",
}

// ExportReport 把调和后的报告导出为 .xlsx 汇总（每记录族一个 sheet）
// 照片列只落文件名（data URL 不进表格）
func ExportReport(report *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	first := true
	for _, family := range domain.Families {
		sheetName := sheetTitles[family]
		index, err := f.NewSheet(sheetName)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
		}
		if first {
			f.DeleteSheet("Sheet1")
			f.SetActiveSheet(index)
			first = false
		}

		for col, header := range exportHeader {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, header); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header style: %w", err)
			}
		}

		slotByLabel := make(map[string]domain.PhotoSlot, len(report.Slots[family]))
		for _, s := range report.Slots[family] {
			slotByLabel[s.Label] = s
		}

		for rowIdx, rec := range report.Records[family] {
			slot := slotByLabel[rec.Label]
			values := []string{
				rec.Label,
				slot.IdentityToken,
				rec.Hostname,
				rec.MAC,
				rec.Model,
				rec.Resolution,
				rec.LinearSize,
				rec.Section,
				rec.ProbeCount,
				rec.PatchPort,
				rec.SwitchPort,
				rec.ContractRef,
				slot.Frontal.FileName,
				slot.Player.FileName,
				slot.IPConfig.FileName,
			}
			for col, v := range values {
				if v == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to convert coordinates: %w", err)
				}
				if err := f.SetCellValue(sheetName, cell, v); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
				}
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
