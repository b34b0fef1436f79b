package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipts = "jobs:receipts"
	QueueEmail    = "jobs:email"

	JobReceipt = "receipt"
	JobEmail   = "email"

	// MaxJobAttempts is how many times a job runs before it lands in the DLQ.
	MaxJobAttempts = 5
)

// ErrPermanent marks failures that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")

func permanent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermanent, fmt.Sprintf(format, args...))
}

// Job is the generic envelope for all async tasks.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Queue    string          `json:"queue"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes the payload of one job type.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt queues PDF receipt generation for a committed sale.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, saleID int64) error {
	return d.enqueue(ctx, QueueReceipts, JobReceipt, ReceiptJobPayload{SaleID: saleID})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{ID: uuid.NewString(), Type: jobType, Queue: queue, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, id int) {
	queues := []string{QueueReceipts, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, Job{Queue: queue, Payload: json.RawMessage(raw)}, ReasonMalformed, err)
		return
	}
	if job.Queue == "" {
		job.Queue = queue
	}

	h, ok := handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, rdb, job, ReasonNoHandler, nil)
		return
	}

	err := h.Process(ctx, job.Payload)
	job.Attempts++
	switch {
	case err == nil:
		log.Info().Str("job_id", job.ID).Str("type", job.Type).Int64("sale_id", saleIDOf(job)).
			Int("attempts", job.Attempts).Msg("job done")
		return
	case errors.Is(err, ErrPermanent):
		SendToDLQ(ctx, rdb, job, ReasonPermanent, err)
		return
	case job.Attempts >= MaxJobAttempts:
		SendToDLQ(ctx, rdb, job, ReasonExhausted, err)
		return
	}
	if serr := scheduleRetry(ctx, rdb, job, time.Now().Add(computeRetryBackoff(job.Attempts))); serr != nil {
		log.Error().Err(serr).Str("job_id", job.ID).Msg("failed to schedule retry")
		SendToDLQ(ctx, rdb, job, ReasonExhausted, err)
		return
	}
	log.Warn().Err(err).Str("job_id", job.ID).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, retry scheduled")
}
