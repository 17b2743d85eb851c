package reconcile

import "asbuilt-data/internal/domain"

// AssignResult 分配产物
// Ready=false 表示槽位集合尚未与记录族同步，本次完全不分配（避免半一致状态）
type AssignResult struct {
	Slots         []domain.PhotoSlot
	Consumed      map[string]bool
	Ready         bool
	Assigned      int
	AffectedSlots int
	PerRole       map[PhotoRole]int
	// UnmatchedTokens 分类出的 token 中没有任何槽位认领的
	UnmatchedTokens []string
}

// AssignPhotos 把分类分组并入槽位集合
// 规则：
//   - 前置条件：labels（贡献记录族的 label 并集）须每个都有槽位，否则整体 defer
//   - 槽位 token 优先取可编辑的 IdentityToken，缺省回退 label 提取
//   - 已填充的照片字段绝不覆盖（重复导入安全）
//   - 已消费文件（name+size）跨调用不二次处理；consumed 以副本返回
func AssignPhotos(slots []domain.PhotoSlot, labels []string, batch ClassifiedBatch, consumed map[string]bool) AssignResult {
	res := AssignResult{
		Slots:           slots,
		Consumed:        copySet(consumed),
		PerRole:         map[PhotoRole]int{},
		UnmatchedTokens: []string{},
	}

	if !slotsReady(slots, labels) {
		return res
	}
	res.Ready = true

	out := append([]domain.PhotoSlot(nil), slots...)
	claimed := make(map[string]bool, len(batch.Groups))

	for i := range out {
		slot := &out[i]
		token := slot.IdentityToken
		if token == "" {
			token = ExtractToken(slot.Label)
		}
		if token == "" {
			continue
		}
		group, ok := batch.Groups[token]
		if !ok {
			continue
		}
		claimed[token] = true

		slotTouched := false
		for _, role := range Roles {
			file := group.Get(role)
			if file == nil || res.Consumed[file.Key()] {
				continue
			}
			target := photoField(slot, role)
			if !target.IsEmpty() {
				continue
			}
			*target = domain.PhotoRef{
				URL:      file.URL,
				FileName: file.Name,
				FileSize: file.Size,
			}
			res.Consumed[file.Key()] = true
			res.PerRole[role]++
			res.Assigned++
			slotTouched = true
		}
		if slotTouched {
			res.AffectedSlots++
		}
	}

	for _, token := range batch.Tokens {
		if !claimed[token] {
			res.UnmatchedTokens = append(res.UnmatchedTokens, token)
		}
	}

	res.Slots = out
	return res
}

// slotsReady 并集中每个 label 是否都已有槽位
func slotsReady(slots []domain.PhotoSlot, labels []string) bool {
	present := make(map[string]bool, len(slots))
	for _, s := range slots {
		if s.Label != "" {
			present[s.Label] = true
		}
	}
	for _, l := range labels {
		if l != "" && !present[l] {
			return false
		}
	}
	return true
}

func photoField(slot *domain.PhotoSlot, role PhotoRole) *domain.PhotoRef {
	switch role {
	case RoleFrontal:
		return &slot.Frontal
	case RolePlayer:
		return &slot.Player
	case RoleIPConfig:
		return &slot.IPConfig
	}
	return nil
}

func copySet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
