package oracle

import "strings"

// ExtractJSON returns the outermost JSON object embedded in model output.
// Models occasionally wrap structured answers in prose or code fences; callers
// unmarshal the returned slice and treat failures as an empty oracle result.
func ExtractJSON(text string) string {
	content := strings.TrimSpace(text)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return ""
}
