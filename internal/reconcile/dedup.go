package reconcile

import "asbuilt-data/internal/domain"

// DedupResult 去重产物
type DedupResult struct {
	Records           []domain.UnitRecord `json:"records"`
	DuplicatesRemoved int                 `json:"duplicates_removed"`
}

// Dedup 按 SX 标识去重，首次出现者保留，顺序不变
// 无标识的记录全部保留（无法有意义地互相去重）；操作幂等
func Dedup(records []domain.UnitRecord) DedupResult {
	seen := make(map[string]bool, len(records))
	out := make([]domain.UnitRecord, 0, len(records))
	removed := 0

	for _, rec := range records {
		token := ExtractToken(rec.Label)
		if token == "" {
			out = append(out, rec)
			continue
		}
		if seen[token] {
			removed++
			continue
		}
		seen[token] = true
		out = append(out, rec)
	}

	return DedupResult{Records: out, DuplicatesRemoved: removed}
}
