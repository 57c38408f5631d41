// Package decision classifies a reduced document and encodes the resulting
// record as one JSON line.
package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/ocr"
)

// PreviewRunes is the preview length before the ellipsis is added.
const PreviewRunes = 200

const ellipsis = "…"

// Record is the persisted summary of one processed document.
type Record struct {
	Source   string             `json:"source"`
	Decision constants.Decision `json:"decision"`
	Lines    int                `json:"lines"`
	Preview  string             `json:"preview"`
}

// Build classifies doc and computes its preview.
func Build(doc ocr.Document) Record {
	n := doc.LineCount()
	return Record{
		Source:   doc.Source,
		Decision: Classify(n),
		Lines:    n,
		Preview:  Preview(doc, PreviewRunes),
	}
}

// Classify maps a line count to a decision.
func Classify(lines int) constants.Decision {
	if lines == 0 {
		return constants.DecisionEmpty
	}
	return constants.DecisionConverged
}

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Preview joins line texts with single spaces in page then line order. Once
// the text reaches max runes it is cut to max runes and suffixed with "…".
// Carriage returns and newlines become spaces.
func Preview(doc ocr.Document, max int) string {
	var b strings.Builder
	for _, p := range doc.Pages {
		for _, l := range p.Lines {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(newlines.Replace(l.Text))
			if utf8.RuneCountInString(b.String()) >= max {
				return cut(b.String(), max)
			}
		}
	}
	return b.String()
}

func cut(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + ellipsis
		}
		n++
	}
	return s + ellipsis
}

// MarshalLine encodes the record as a single JSON object followed by '\n'.
// Quotes, backslashes and control characters are escaped, so the output never
// contains a raw newline before the terminator.
func (r Record) MarshalLine() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode record %s: %w", r.Source, err)
	}
	return buf.Bytes(), nil
}

// ParseLine decodes one JSON line produced by MarshalLine.
func ParseLine(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}
