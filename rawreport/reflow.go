// Package rawreport formats the per-student raw extracts before they are
// captured as images.
package rawreport

import (
	"regexp"
	"strings"
)

// DefaultWrapWidth is the number of characters per line in the free-text
// columns.
const DefaultWrapWidth = 25

var blankLines = regexp.MustCompile(`\n{2,}`)

// CollapseBlankLines folds every run of consecutive line breaks into one.
func CollapseBlankLines(s string) string {
	return blankLines.ReplaceAllString(s, "\n")
}

// WrapLine breaks line every width characters. It counts runes and ignores
// word boundaries, so a word may be split across lines.
func WrapLine(line string, width int) string {
	runes := []rune(line)
	if width <= 0 || len(runes) <= width {
		return line
	}
	var b strings.Builder
	for i := 0; i < len(runes); i += width {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(runes[i:min(i+width, len(runes))]))
	}
	return b.String()
}

// Reflow collapses blank lines, then wraps each remaining line on its own.
func Reflow(text string, width int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(CollapseBlankLines(text), "\n")
	for i, line := range lines {
		lines[i] = WrapLine(line, width)
	}
	return strings.Trim(CollapseBlankLines(strings.Join(lines, "\n")), "\n")
}
