package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
)

// RedisStream mirrors each record as an entry of a Redis stream.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	logger *slog.Logger
}

// NewRedisStream connects using a redis:// URL.
func NewRedisStream(url, stream string, logger *slog.Logger) (*RedisStream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStreamWithOptions(opts, stream, logger), nil
}

func NewRedisStreamWithOptions(opts *redis.Options, stream string, logger *slog.Logger) *RedisStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStream{rdb: redis.NewClient(opts), stream: stream, logger: logger}
}

// Ping verifies connectivity.
func (s *RedisStream) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStream) Append(ctx context.Context, rec decision.Record) error {
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"source":   rec.Source,
			"decision": string(rec.Decision),
			"lines":    strconv.Itoa(rec.Lines),
			"preview":  rec.Preview,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("%w: xadd %s: %w", common.ErrPersistence, s.stream, err)
	}
	s.logger.Debug("decision streamed", "stream", s.stream, "entry_id", id, "source", rec.Source)
	return nil
}

func (s *RedisStream) Close() error { return s.rdb.Close() }

// EntryError reports a stream entry that could not be decoded.
type EntryError struct {
	ID  string
	Err error
}

func (e *EntryError) Error() string { return fmt.Sprintf("entry %s: %v", e.ID, e.Err) }

func (e *EntryError) Unwrap() error { return e.Err }

// ReadStream returns up to count records from the start of the stream. The
// first malformed entry stops the read with an *EntryError.
func (s *RedisStream) ReadStream(ctx context.Context, count int64) ([]decision.Record, error) {
	msgs, err := s.rdb.XRangeN(ctx, s.stream, "-", "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrange %s: %w", s.stream, err)
	}
	out := make([]decision.Record, 0, len(msgs))
	for _, m := range msgs {
		rec, err := entryRecord(m.Values)
		if err != nil {
			return out, &EntryError{ID: m.ID, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func entryRecord(v map[string]any) (decision.Record, error) {
	rec := decision.Record{}
	rec.Source, _ = v["source"].(string)
	rec.Preview, _ = v["preview"].(string)
	if d, ok := v["decision"].(string); ok {
		rec.Decision = constants.Decision(d)
	}
	l, ok := v["lines"].(string)
	if !ok {
		return rec, errors.New("missing lines field")
	}
	n, err := strconv.Atoi(l)
	if err != nil {
		return rec, fmt.Errorf("lines: %w", err)
	}
	rec.Lines = n
	if rec.Decision != decision.Classify(n) {
		return rec, fmt.Errorf("decision %q does not match %d line(s)", rec.Decision, n)
	}
	return rec, nil
}
