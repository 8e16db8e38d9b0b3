package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fr0stylo/tokengate/internal/observability"
)

const maxSamplesPerQuery = 256

// QueryStats is the latency distribution observed for one named query.
type QueryStats struct {
	Name   string
	Count  int
	Errors int
	P50    time.Duration
	P95    time.Duration
	Max    time.Duration
}

type querySamples struct {
	durations []time.Duration
	errors    int
}

type queryLatencyTracker struct {
	mu       sync.Mutex
	byName   map[string]*querySamples
	slowOver time.Duration
}

func newQueryLatencyTracker() *queryLatencyTracker {
	return &queryLatencyTracker{byName: make(map[string]*querySamples)}
}

func (t *queryLatencyTracker) observe(ctx context.Context, name string, took time.Duration, err error) {
	t.mu.Lock()
	samples, ok := t.byName[name]
	if !ok {
		samples = &querySamples{}
		t.byName[name] = samples
	}
	samples.durations = append(samples.durations, took)
	if len(samples.durations) > maxSamplesPerQuery {
		samples.durations = samples.durations[len(samples.durations)-maxSamplesPerQuery:]
	}
	if err != nil && err != sql.ErrNoRows {
		samples.errors++
	}
	slowOver := t.slowOver
	t.mu.Unlock()

	if slowOver > 0 && took > slowOver {
		slog.WarnContext(ctx, "db_query_slow", "query", name, "duration", took)
	}
}

func (t *queryLatencyTracker) snapshot() []QueryStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]QueryStats, 0, len(t.byName))
	for name, samples := range t.byName {
		n := len(samples.durations)
		if n == 0 {
			continue
		}
		sorted := append([]time.Duration(nil), samples.durations...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		stats = append(stats, QueryStats{
			Name:   name,
			Count:  n,
			Errors: samples.errors,
			P50:    sorted[(n-1)/2],
			P95:    sorted[int(float64(n-1)*0.95)],
			Max:    sorted[n-1],
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// QueryStats returns per-query latency samples collected since open.
func (c *Database) QueryStats() []QueryStats {
	if c == nil || c.tracker == nil {
		return nil
	}
	return c.tracker.snapshot()
}

// LogSlowQueries enables warn logs for queries slower than threshold. Zero disables.
func (c *Database) LogSlowQueries(threshold time.Duration) {
	c.tracker.mu.Lock()
	c.tracker.slowOver = threshold
	c.tracker.mu.Unlock()
}

// instrumentedDBTX traces every statement and records its latency under the
// name taken from the leading "-- name: X" comment.
type instrumentedDBTX struct {
	inner   DBTX
	tracker *queryLatencyTracker
}

func newInstrumentedDBTX(inner DBTX, tracker *queryLatencyTracker) DBTX {
	return &instrumentedDBTX{inner: inner, tracker: tracker}
}

func (d *instrumentedDBTX) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	name := queryName(query)
	ctx, span := observability.StartDBSpan(ctx, name, "exec")
	defer span.End()

	start := time.Now()
	result, err := d.inner.ExecContext(ctx, query, args...)
	d.tracker.observe(ctx, name, time.Since(start), err)
	span.RecordError(err)
	return result, err
}

func (d *instrumentedDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	name := queryName(query)
	ctx, span := observability.StartDBSpan(ctx, name, "prepare")
	defer span.End()

	stmt, err := d.inner.PrepareContext(ctx, query)
	span.RecordError(err)
	return stmt, err
}

func (d *instrumentedDBTX) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	name := queryName(query)
	ctx, span := observability.StartDBSpan(ctx, name, "query")
	defer span.End()

	start := time.Now()
	rows, err := d.inner.QueryContext(ctx, query, args...)
	d.tracker.observe(ctx, name, time.Since(start), err)
	span.RecordError(err)
	return rows, err
}

func (d *instrumentedDBTX) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	name := queryName(query)
	ctx, span := observability.StartDBSpan(ctx, name, "query_row")
	defer span.End()

	start := time.Now()
	row := d.inner.QueryRowContext(ctx, query, args...)
	d.tracker.observe(ctx, name, time.Since(start), row.Err())
	return row
}

func queryName(query string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(query), "\n")
	rest, ok := strings.CutPrefix(strings.TrimSpace(first), "-- name:")
	if !ok {
		return "unknown"
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}
