package llm

import "strings"

// StripFences drops markdown code-fence lines (``` or ```lang) and trims
// the result. Models wrap code in fences even when asked not to.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "```") {
			continue
		}
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
