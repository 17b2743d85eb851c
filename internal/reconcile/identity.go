package reconcile

import (
	"regexp"
	"strings"
)

// tokenPattern SX 标识：行首或分隔符后的 "S"+数字
// 前导捕获组用于排除 "PILARES1" 这类字母紧邻的误判
var tokenPattern = regexp.MustCompile(`(?:^|[^A-Z0-9])(S[0-9]+)`)

// ExtractToken 从 label / 文件名提取 SX 标识
// 取最后一个匹配（标识按惯例位于末尾，如 "..._CIRCLE_S1_FRONTAL"），
// 无匹配返回空串 —— 这是合法的终态，不是错误
func ExtractToken(s string) string {
	upper := strings.ToUpper(s)
	matches := tokenPattern.FindAllStringSubmatch(upper, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
