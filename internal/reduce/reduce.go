// Package reduce merges the OCR variants of one document into a single
// canonical document by clustering near-duplicate lines.
package reduce

import (
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/ocr"
)

// Documents reduces the variants of one document. The first document is the
// base: its source and page numbering are kept. For every base page the lines
// of the same page in each variant are appended in variant order and then
// clustered with Lines.
func Documents(docs []ocr.Document) (ocr.Document, error) {
	if len(docs) == 0 {
		return ocr.Document{}, common.ErrNoDocuments
	}

	base := docs[0]
	out := ocr.Document{
		Source: base.Source,
		Pages:  make([]ocr.Page, len(base.Pages)),
	}
	for i, page := range base.Pages {
		var candidates []ocr.Line
		for _, d := range docs {
			if i < len(d.Pages) {
				candidates = append(candidates, d.Pages[i].Lines...)
			}
		}
		out.Pages[i] = ocr.Page{Number: page.Number, Lines: Lines(candidates)}
	}
	return out, nil
}

type representative struct {
	line ocr.Line
	toks tokens
}

// Lines clusters candidates greedily in input order. A line joins the first
// representative it matches at or above Threshold and replaces it only when its
// confidence is strictly higher (missing counts as 0). Unmatched lines start a
// new cluster. The result keeps first-seen cluster order.
func Lines(candidates []ocr.Line) []ocr.Line {
	reps := make([]representative, 0, len(candidates))

outer:
	for _, line := range candidates {
		toks := tokenSet(NormalizeForCompare(line.Text))
		for i := range reps {
			if jaccard(toks, reps[i].toks) >= Threshold {
				if line.ConfidenceOrZero() > reps[i].line.ConfidenceOrZero() {
					reps[i] = representative{line: line, toks: toks}
				}
				continue outer
			}
		}
		reps = append(reps, representative{line: line, toks: toks})
	}

	out := make([]ocr.Line, len(reps))
	for i, r := range reps {
		out[i] = r.line
	}
	return out
}
