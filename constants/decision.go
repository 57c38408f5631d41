package constants

// Decision is the outcome recorded for a processed document.
type Decision string

// Stable values (written verbatim to the decision log).
const (
	DecisionEmpty     Decision = "empty"         // reduced document has no lines
	DecisionConverged Decision = "ocr_converged" // at least one line survived reduction
)

func (d Decision) String() string { return string(d) }
