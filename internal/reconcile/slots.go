package reconcile

import "asbuilt-data/internal/domain"

// SyncStats 槽位同步诊断
type SyncStats struct {
	Inserted int `json:"inserted"`
	Pruned   int `json:"pruned"`
	Retained int `json:"retained"`
}

// SyncSlots 使槽位集合与贡献记录族的 label 并集保持 1:1
//   - 并集中缺槽位的 label：追加空槽位，token 默认取自 label
//   - label 已不在并集中的槽位：剔除（空 label 槽位视为手工条目，保留）
//   - 已存在槽位的照片字段绝不改动
//
// 幂等：一次通过即达固定点，可在每次记录族变化后安全重入
func SyncSlots(slots []domain.PhotoSlot, labels []string) ([]domain.PhotoSlot, SyncStats) {
	wanted := make(map[string]bool, len(labels))
	ordered := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || wanted[l] {
			continue
		}
		wanted[l] = true
		ordered = append(ordered, l)
	}

	var stats SyncStats
	out := make([]domain.PhotoSlot, 0, len(ordered))
	present := make(map[string]bool, len(slots))

	for _, s := range slots {
		if s.Label == "" || wanted[s.Label] {
			out = append(out, s)
			if s.Label != "" {
				present[s.Label] = true
				stats.Retained++
			}
			continue
		}
		stats.Pruned++
	}

	for _, l := range ordered {
		if present[l] {
			continue
		}
		out = append(out, domain.PhotoSlot{
			Label:         l,
			IdentityToken: ExtractToken(l),
		})
		stats.Inserted++
	}

	return out, stats
}

// UnionLabels 多个记录族 label 序列的有序并集（首见顺序）
func UnionLabels(families ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, labels := range families {
		for _, l := range labels {
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
