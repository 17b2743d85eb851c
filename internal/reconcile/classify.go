package reconcile

import (
	"strings"

	"asbuilt-data/internal/domain"
)

// PhotoRole 照片角色
type PhotoRole string

const (
	RoleFrontal      PhotoRole = "frontal"
	RolePlayer       PhotoRole = "player"
	RoleIPConfig     PhotoRole = "ip_config"
	RoleUnclassified PhotoRole = "unclassified"
)

// Roles 分配/计数遍历用的固定顺序
var Roles = []PhotoRole{RoleFrontal, RolePlayer, RoleIPConfig}

// RoleGroup 某一 SX 标识下按角色分组的文件（每角色至多一个）
type RoleGroup struct {
	Frontal  *domain.PhotoFile
	Player   *domain.PhotoFile
	IPConfig *domain.PhotoFile
}

// Get 按角色取文件
func (g *RoleGroup) Get(role PhotoRole) *domain.PhotoFile {
	switch role {
	case RoleFrontal:
		return g.Frontal
	case RolePlayer:
		return g.Player
	case RoleIPConfig:
		return g.IPConfig
	}
	return nil
}

func (g *RoleGroup) set(role PhotoRole, f *domain.PhotoFile) {
	switch role {
	case RoleFrontal:
		g.Frontal = f
	case RolePlayer:
		g.Player = f
	case RoleIPConfig:
		g.IPConfig = f
	}
}

// UnclassifiedFile 无法归类的文件 + 原因
type UnclassifiedFile struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// ShadowedFile 同批次内 (token, role) 已被先到文件占用而丢弃的文件
type ShadowedFile struct {
	FileName string    `json:"file_name"`
	Token    string    `json:"token"`
	Role     PhotoRole `json:"role"`
}

// ClassifiedBatch 分类产物
type ClassifiedBatch struct {
	Groups       map[string]*RoleGroup
	Tokens       []string // Groups 的首见顺序
	Unclassified []UnclassifiedFile
	Shadowed     []ShadowedFile
}

const (
	reasonNoToken = "no identity token"
	reasonNoRole  = "no role keyword"
)

// ClassifyBatch 对一批照片文件做文件名启发式分类
// 同批次内每个 (token, role) 只保留首个命中文件，后到者记入 Shadowed
func ClassifyBatch(files []domain.PhotoFile) ClassifiedBatch {
	out := ClassifiedBatch{
		Groups:       map[string]*RoleGroup{},
		Tokens:       []string{},
		Unclassified: []UnclassifiedFile{},
		Shadowed:     []ShadowedFile{},
	}

	for i := range files {
		f := files[i]
		token := ExtractToken(f.Name)
		if token == "" {
			out.Unclassified = append(out.Unclassified, UnclassifiedFile{FileName: f.Name, Reason: reasonNoToken})
			continue
		}

		role := classifyRole(f.Name)
		if role == RoleUnclassified {
			out.Unclassified = append(out.Unclassified, UnclassifiedFile{FileName: f.Name, Reason: reasonNoRole})
			continue
		}

		group := out.Groups[token]
		if group == nil {
			group = &RoleGroup{}
			out.Groups[token] = group
			out.Tokens = append(out.Tokens, token)
		}
		if group.Get(role) != nil {
			out.Shadowed = append(out.Shadowed, ShadowedFile{FileName: f.Name, Token: token, Role: role})
			continue
		}
		group.set(role, &f)
	}

	return out
}

// classifyRole 有序规则表，自上而下首个命中生效：
//  1. player：同时含 PLAYER 与 SENDING（任意分隔或 "+"）
//  2. ip_config：不含 PLAYER，且含 IP 标记 —— 先查显式 "IP CONFIG"
//     变体（任意分隔或无分隔），再查裸 "_IP"/" IP" 记号形式
//  3. frontal：含独立记号 FRONT / FRONTAL
//
// 注意保持优先级：关键词互相重叠（如 PLAYER 文件名里也可能带 IP）
func classifyRole(filename string) PhotoRole {
	upper := strings.ToUpper(filename)
	compact := compactAlnum(upper)
	tokens := splitTokens(upper)

	hasPlayer := strings.Contains(upper, "PLAYER")

	if hasPlayer && strings.Contains(upper, "SENDING") {
		return RolePlayer
	}

	if !hasPlayer {
		if strings.Contains(compact, "IPCONFIG") {
			return RoleIPConfig
		}
		if hasToken(tokens, "IP") {
			return RoleIPConfig
		}
	}

	if hasToken(tokens, "FRONTAL") || hasToken(tokens, "FRONT") {
		return RoleFrontal
	}

	return RoleUnclassified
}

// compactAlnum 去掉所有非字母数字字符（"IP_CONFIG"/"IP CONFIG"/"IP-CONFIG" 归一）
func compactAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitTokens 按非字母数字切分为记号（扩展名也会被切出）
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
