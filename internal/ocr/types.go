package ocr

// Document is the recognized text of one source, page by page in reading order.
type Document struct {
	Source string
	Pages  []Page
}

// Page holds the lines of one page; Number is 1-based.
type Page struct {
	Number int
	Lines  []Line
}

// Line is one non-empty trimmed line of text. Confidence is nil when the engine
// did not report one; otherwise it lies in [0, 1].
type Line struct {
	Text       string
	Confidence *float64
}

// LineCount returns the number of lines across all pages.
func (d Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// ConfidenceOrZero treats a missing confidence as 0.
func (l Line) ConfidenceOrZero() float64 {
	if l.Confidence == nil {
		return 0
	}
	return *l.Confidence
}

// Conf is a helper for building lines with a known confidence.
func Conf(v float64) *float64 { return &v }
