// Package jobs runs background work on a bounded worker pool. Each job is a
// CloudEvents envelope whose id is claimed once in the ephemeral store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	ceevent "github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
)

// Source is the CloudEvents source attribute of every job.
const Source = "tokengate"

const (
	defaultWorkers     = 8
	defaultQueueSize   = 1024
	defaultAttempts    = 5
	defaultClaimTTL    = 24 * time.Hour
	defaultBaseBackoff = 500 * time.Millisecond
	defaultJobTimeout  = 2 * time.Minute
)

var (
	// ErrQueueFull is returned when the pool cannot accept more work.
	ErrQueueFull = errors.New("job queue full")
	// ErrPermanent marks a handler failure that must not be retried.
	ErrPermanent = errors.New("permanent job failure")
)

// Handler processes one job envelope.
type Handler func(ctx context.Context, event ceevent.Event) error

// Options sizes the queue.
type Options struct {
	Workers     int
	QueueSize   int
	ClaimTTL    time.Duration
	BaseBackoff time.Duration
	JobTimeout  time.Duration
}

// Queue is the ports.JobQueue implementation.
type Queue struct {
	pool        pond.Pool
	store       ports.EphemeralStore
	log         *slog.Logger
	claimTTL    time.Duration
	baseBackoff time.Duration
	jobTimeout  time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
	stopOnce sync.Once
}

// New starts a worker pool backed by store for job-id claims.
func New(store ports.EphemeralStore, log *slog.Logger, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = defaultClaimTTL
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		pool:        pond.NewPool(opts.Workers, pond.WithQueueSize(opts.QueueSize)),
		store:       store,
		log:         log,
		claimTTL:    opts.ClaimTTL,
		baseBackoff: opts.BaseBackoff,
		jobTimeout:  opts.JobTimeout,
		handlers:    make(map[string]Handler),
	}
}

// Handle registers the handler for a job type.
func (q *Queue) Handle(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue claims the job id and submits the envelope. A second enqueue with
// the same id reports Deduped without queueing anything.
func (q *Queue) Enqueue(ctx context.Context, req ports.EnqueueRequest) (ports.EnqueueResult, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	if strings.TrimSpace(req.Type) == "" {
		return ports.EnqueueResult{}, fmt.Errorf("enqueue %s: missing job type", id)
	}

	event := ceevent.New()
	event.SetID(id)
	event.SetSource(Source)
	event.SetType(req.Type)
	event.SetTime(time.Now().UTC())
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		event.SetExtension("correlationid", correlationID)
	}
	if err := event.SetData(ceevent.ApplicationJSON, req.Payload); err != nil {
		return ports.EnqueueResult{}, fmt.Errorf("encode job %s: %w", id, err)
	}

	claimKey := "job:" + id
	claimed, err := q.store.SetIfAbsent(ctx, claimKey, []byte(req.Type), q.claimTTL)
	if err != nil {
		return ports.EnqueueResult{}, fmt.Errorf("claim job %s: %w", id, err)
	}
	if !claimed {
		return ports.EnqueueResult{JobID: id, Deduped: true}, nil
	}

	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if _, ok := q.pool.TrySubmit(func() { q.run(event, attempts) }); !ok {
		if err := q.store.Delete(ctx, claimKey); err != nil {
			q.log.WarnContext(ctx, "job_claim_release_failed", "job_id", id, "error", err)
		}
		return ports.EnqueueResult{}, ErrQueueFull
	}
	return ports.EnqueueResult{JobID: id}, nil
}

func (q *Queue) run(event ceevent.Event, attempts int) {
	q.mu.RLock()
	handler, ok := q.handlers[event.Type()]
	q.mu.RUnlock()
	if !ok {
		q.log.Warn("job_handler_missing", "job_id", event.ID(), "job_type", event.Type())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.jobTimeout)
	defer cancel()
	correlationID := event.ID()
	if ext, ok := event.Extensions()["correlationid"].(string); ok && ext != "" {
		correlationID = ext
	}
	ctx = observability.WithCorrelationID(ctx, correlationID)

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(q.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := handler(ctx, event)
		if err == nil || errors.Is(err, ErrPermanent) {
			return err
		}
		q.log.WarnContext(ctx, "job_attempt_failed", "job_id", event.ID(), "job_type", event.Type(), "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		q.log.ErrorContext(ctx, "job_failed", "job_id", event.ID(), "job_type", event.Type(), "attempts", attempt, "error", err)
		return
	}
	q.log.DebugContext(ctx, "job_done", "job_id", event.ID(), "job_type", event.Type(), "attempts", attempt)
}

// Stop waits for queued jobs to finish and rejects new ones.
func (q *Queue) Stop() {
	q.stopOnce.Do(q.pool.StopAndWait)
}

// Decode unmarshals the job payload.
func Decode[T any](event ceevent.Event) (T, error) {
	var payload T
	if err := event.DataAs(&payload); err != nil {
		return payload, fmt.Errorf("decode job %s: %w", event.ID(), err)
	}
	return payload, nil
}
