package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/repository"
)

// Store mirrors records into the SQL decision table.
type Store struct {
	repo repository.DecisionRepository
	now  func() time.Time
}

func NewStore(repo repository.DecisionRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

func (s *Store) Append(ctx context.Context, rec decision.Record) error {
	if _, err := s.repo.Insert(ctx, rec, s.now()); err != nil {
		return fmt.Errorf("%w: store %s: %w", common.ErrPersistence, rec.Source, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
