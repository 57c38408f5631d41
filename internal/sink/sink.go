// Package sink persists decision records. The JSONL log is the primary sink;
// SQL and Redis mirrors may be attached through Multi.
package sink

import (
	"context"

	"github.com/joseph-ayodele/optimo/internal/decision"
)

// Sink appends records. Appends are at-least-once and never rewrite earlier
// records. Errors wrap common.ErrPersistence.
type Sink interface {
	Append(ctx context.Context, rec decision.Record) error
	Close() error
}
