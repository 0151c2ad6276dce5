// Package strutil holds small string helpers shared by the AI packages.
package strutil

// Truncate shortens s to at most maxLen runes, appending "..." when it cuts.
// It is used to keep model output previews in logs bounded.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
