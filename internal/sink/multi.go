package sink

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/optimo/internal/decision"
)

// Multi appends to the primary sink first and then to every mirror in order.
// The first failure stops the append; the primary record stays written.
type Multi struct {
	primary Sink
	mirrors []Sink
}

func NewMulti(primary Sink, mirrors ...Sink) *Multi {
	return &Multi{primary: primary, mirrors: mirrors}
}

func (m *Multi) Append(ctx context.Context, rec decision.Record) error {
	if err := m.primary.Append(ctx, rec); err != nil {
		return err
	}
	for _, s := range m.mirrors {
		if err := s.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Close() error {
	errs := []error{m.primary.Close()}
	for _, s := range m.mirrors {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
