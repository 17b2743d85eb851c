package reconcile

import (
	"strings"

	"asbuilt-data/internal/domain"
)

// ColumnRule 行接受规则：指定列须包含指定子串（大小写不敏感）
// 规则之间为 AND；与外部 Excel 模板的列索引是硬契约，不可改动
type ColumnRule struct {
	Column   int
	Contains string
}

// FamilyProfile 记录族导入画像
// 文件名 marker 为 any-of 白名单门禁，防止误导入无关表格
type FamilyProfile struct {
	Family          domain.Family
	FilenameMarkers []string
	HeaderRow       int
	DataStartRow    int
	RowRules        []ColumnRule
	// FieldColumns 字段名 -> 列索引（0 起）；未列出的字段保持空串
	FieldColumns map[string]int
}

// 固定列索引（见验收表模板）：
//   screens:  C=状态(ALTA)、U=类型(LED)
//   banners/turnomatic/welcomer: C=状态(ALTA)
var builtinProfiles = []FamilyProfile{
	{
		Family:          domain.FamilyScreens,
		FilenameMarkers: []string{"VALIDACION_MKD"},
		HeaderRow:       1,
		DataStartRow:    2,
		RowRules: []ColumnRule{
			{Column: 20, Contains: "LED"},
			{Column: 2, Contains: "ALTA"},
		},
		FieldColumns: map[string]int{
			"label":      0,
			"hostname":   4,
			"mac":        5,
			"resolution": 8,
			"model":      10,
			"section":    12,
		},
	},
	{
		Family:          domain.FamilyBanners,
		FilenameMarkers: []string{"VALIDACION_INTERNA_BANNERS"},
		HeaderRow:       1,
		DataStartRow:    2,
		RowRules: []ColumnRule{
			{Column: 2, Contains: "ALTA"},
		},
		FieldColumns: map[string]int{
			"label":       0,
			"linear_size": 6,
			"section":     7,
			"model":       9,
		},
	},
	{
		Family:          domain.FamilyTurnomatic,
		FilenameMarkers: []string{"TURNOMATIC"},
		HeaderRow:       1,
		DataStartRow:    2,
		RowRules: []ColumnRule{
			{Column: 2, Contains: "ALTA"},
		},
		FieldColumns: map[string]int{
			"label":    0,
			"hostname": 3,
			"mac":      4,
			"model":    6,
		},
	},
	{
		Family:          domain.FamilyWelcomer,
		FilenameMarkers: []string{"WELCOMER"},
		HeaderRow:       1,
		DataStartRow:    2,
		RowRules: []ColumnRule{
			{Column: 2, Contains: "ALTA"},
		},
		FieldColumns: map[string]int{
			"label":       0,
			"hostname":    3,
			"mac":         4,
			"probe_count": 7,
		},
	},
}

// Profiles 返回内建记录族画像
func Profiles() []FamilyProfile {
	out := make([]FamilyProfile, len(builtinProfiles))
	copy(out, builtinProfiles)
	return out
}

// ProfileFor 按族名查画像
func ProfileFor(f domain.Family) (FamilyProfile, bool) {
	for _, p := range builtinProfiles {
		if p.Family == f {
			return p, true
		}
	}
	return FamilyProfile{}, false
}

// MatchesFilename 文件名门禁：任一 marker 命中即通过
// 大小写与重音不敏感（"VALIDACIÓN" 与 "VALIDACION" 等价）
func (p FamilyProfile) MatchesFilename(filename string) bool {
	folded := foldMarker(filename)
	for _, m := range p.FilenameMarkers {
		if strings.Contains(folded, foldMarker(m)) {
			return true
		}
	}
	return false
}

// DetectProfile 按文件名在所有画像中匹配（第一个命中的族生效）
func DetectProfile(filename string) (FamilyProfile, bool) {
	for _, p := range builtinProfiles {
		if p.MatchesFilename(filename) {
			return p, true
		}
	}
	return FamilyProfile{}, false
}

var markerFolder = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U",
	"á", "A", "é", "E", "í", "I", "ó", "O", "ú", "U", "ü", "U",
	"Ñ", "N", "ñ", "N",
)

func foldMarker(s string) string {
	return strings.ToUpper(markerFolder.Replace(s))
}
