package reconcile

import (
	"errors"
	"strings"

	"asbuilt-data/internal/domain"
)

// ErrSourceMismatch 文件名未命中任何 marker（门禁失败，整体不导入）
var ErrSourceMismatch = errors.New("source file does not match family markers")

// ParseStats 逐阶段行数诊断
type ParseStats struct {
	RowsConsidered int   `json:"rows_considered"`
	RowsPerRule    []int `json:"rows_per_rule"`
	RowsEmitted    int   `json:"rows_emitted"`
}

// ParseResult 解析产物（保持表内行序；零记录是可恢复结果而非错误）
type ParseResult struct {
	Records []domain.UnitRecord `json:"records"`
	Stats   ParseStats          `json:"stats"`
}

// ParseRows 按画像把原始表格行解析为记录
// rows 为 0 起行主序矩阵，空单元格为 ""；filename 仅用于门禁
func ParseRows(p FamilyProfile, filename string, rows [][]string) (ParseResult, error) {
	if !p.MatchesFilename(filename) {
		return ParseResult{Stats: ParseStats{RowsPerRule: make([]int, len(p.RowRules))}}, ErrSourceMismatch
	}

	res := ParseResult{
		Records: []domain.UnitRecord{},
		Stats:   ParseStats{RowsPerRule: make([]int, len(p.RowRules))},
	}

	for i := p.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		res.Stats.RowsConsidered++

		if !acceptRow(p.RowRules, row, &res.Stats) {
			continue
		}

		rec := domain.UnitRecord{}
		for field, col := range p.FieldColumns {
			setField(&rec, field, cellAt(row, col))
		}
		res.Records = append(res.Records, rec)
		res.Stats.RowsEmitted++
	}

	return res, nil
}

// acceptRow 按序应用规则，逐阶段计数；全部通过才接受
func acceptRow(rules []ColumnRule, row []string, stats *ParseStats) bool {
	for i, rule := range rules {
		cell := strings.ToUpper(cellAt(row, rule.Column))
		if !strings.Contains(cell, strings.ToUpper(rule.Contains)) {
			return false
		}
		stats.RowsPerRule[i]++
	}
	return true
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func setField(rec *domain.UnitRecord, field, value string) {
	switch field {
	case "label":
		rec.Label = value
	case "hostname":
		rec.Hostname = value
	case "mac":
		rec.MAC = value
	case "resolution":
		rec.Resolution = value
	case "model":
		rec.Model = value
	case "linear_size":
		rec.LinearSize = value
	case "section":
		rec.Section = value
	case "probe_count":
		rec.ProbeCount = value
	case "patch_port":
		rec.PatchPort = value
	case "switch_port":
		rec.SwitchPort = value
	case "contract_ref":
		rec.ContractRef = value
	case "thermal_screen":
		rec.ThermalScreen = value
	case "thermal_pc":
		rec.ThermalPC = value
	}
}
