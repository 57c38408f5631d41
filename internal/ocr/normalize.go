package ocr

import (
	"regexp"
	"strings"
)

var reCRLF = regexp.MustCompile(`\r\n?`)

// TextToLines splits engine text output into trimmed, non-empty lines.
// Form feeds between pages are treated as line breaks.
func TextToLines(s string) []Line {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n")

	var lines []Line
	for _, raw := range strings.Split(s, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text})
	}
	return lines
}

// SinglePage wraps lines into a document with exactly one page numbered 1.
func SinglePage(source string, lines []Line) Document {
	if lines == nil {
		lines = []Line{}
	}
	return Document{
		Source: source,
		Pages:  []Page{{Number: 1, Lines: lines}},
	}
}
