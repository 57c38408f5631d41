package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/decision"
)

const decisionsTable = "decision_records"

// recordedAtLayout is fixed width so text ordering matches time ordering.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z"

// StoredRecord is a decision record as mirrored in SQL.
type StoredRecord struct {
	ID         uuid.UUID
	RecordedAt time.Time
	decision.Record
}

// ListFilter narrows List. Zero values mean no filter.
type ListFilter struct {
	Decision constants.Decision
	Limit    int
}

type DecisionRepository interface {
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, rec decision.Record, recordedAt time.Time) (uuid.UUID, error)
	List(ctx context.Context, f ListFilter) ([]StoredRecord, error)
	Count(ctx context.Context) (int, error)
}

type decisionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewDecisionRepository(db *DB, log *slog.Logger) DecisionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &decisionRepo{db: db, log: log}
}

func (r *decisionRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

// Migrate creates the decision table if it does not exist yet.
func (r *decisionRepo) Migrate(ctx context.Context) error {
	query, args := r.builder().
		CreateTable(decisionsTable).
		IfNotExists().
		Columns(
			entsql.Column("id").Type("varchar(36)").Attr("NOT NULL"),
			entsql.Column("source").Type("text").Attr("NOT NULL"),
			entsql.Column("decision").Type("varchar(32)").Attr("NOT NULL"),
			entsql.Column("lines").Type("integer").Attr("NOT NULL"),
			entsql.Column("preview").Type("text").Attr("NOT NULL"),
			entsql.Column("recorded_at").Type("varchar(40)").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()
	if err := r.db.Driver().Exec(ctx, query, args, nil); err != nil {
		r.log.Error("decision table migration failed", "err", err)
		return fmt.Errorf("migrate %s: %w", decisionsTable, err)
	}
	return nil
}

func (r *decisionRepo) Insert(ctx context.Context, rec decision.Record, recordedAt time.Time) (uuid.UUID, error) {
	id := uuid.New()
	query, args := r.builder().
		Insert(decisionsTable).
		Columns("id", "source", "decision", "lines", "preview", "recorded_at").
		Values(id.String(), rec.Source, string(rec.Decision), rec.Lines, rec.Preview, recordedAt.UTC().Format(recordedAtLayout)).
		Query()
	if err := r.db.Driver().Exec(ctx, query, args, nil); err != nil {
		r.log.Error("decision insert failed", "source", rec.Source, "err", err)
		return uuid.Nil, err
	}
	r.log.Debug("decision mirrored", "id", id, "source", rec.Source, "decision", rec.Decision)
	return id, nil
}

func (r *decisionRepo) List(ctx context.Context, f ListFilter) ([]StoredRecord, error) {
	sel := r.builder().
		Select("id", "source", "decision", "lines", "preview", "recorded_at").
		From(entsql.Table(decisionsTable)).
		OrderBy("recorded_at", "id")
	if f.Decision != "" {
		sel = sel.Where(entsql.EQ("decision", string(f.Decision)))
	}
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.db.Driver().Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var (
			id, source, dec, preview, at string
			lines                        int
			err                          error
		)
		if err = rows.Scan(&id, &source, &dec, &lines, &preview, &at); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec := StoredRecord{
			Record: decision.Record{
				Source:   source,
				Decision: constants.Decision(dec),
				Lines:    lines,
				Preview:  preview,
			},
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("decision %q: %w", id, err)
		}
		if rec.RecordedAt, err = time.Parse(recordedAtLayout, at); err != nil {
			return nil, fmt.Errorf("decision %s recorded_at: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *decisionRepo) Count(ctx context.Context) (int, error) {
	query, args := r.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(decisionsTable)).
		Query()

	var rows entsql.Rows
	if err := r.db.Driver().Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	defer rows.Close()

	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return n, rows.Err()
}
