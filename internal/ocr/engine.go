package ocr

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/optimo/constants"
)

// Request is one engine invocation: read Input, write output next to OutBase.
type Request struct {
	Input   string
	OutBase string
	Lang    string
}

// Engine recognizes text in a single input. Implementations must return errors
// wrapping common.ErrEngineInvocation or common.ErrEngineOutput.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (Document, error)
}

// VariantError tags an engine failure with the document and variant it belongs to.
type VariantError struct {
	Source  string
	Variant constants.Variant
	Err     error
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("variant %s of %s: %v", e.Variant, e.Source, e.Err)
}

func (e *VariantError) Unwrap() error { return e.Err }
