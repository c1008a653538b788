package browse

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlBreakRegex = regexp.MustCompile(`(?i)<\s*(br|/p|/li|/h[1-6])\s*/?>`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
)

// extractText turns an HTML description into plain text, keeping paragraph
// breaks.
func extractText(content string) string {
	withBreaks := htmlBreakRegex.ReplaceAllString(content, "\n")
	plain := html.UnescapeString(htmlTagRegex.ReplaceAllString(withBreaks, ""))

	var paragraphs []string
	for _, line := range strings.Split(plain, "\n") {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			paragraphs = append(paragraphs, collapsed)
		}
	}
	return strings.Join(paragraphs, "\n")
}

// wordWrap wraps each paragraph of text to width columns.
func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
