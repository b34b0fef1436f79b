package worker

// Failed jobs wait in a Redis sorted set scored by their next attempt time.
// A background goroutine moves due jobs back onto their queue.

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	RetryKey = "jobs:retry"

	retryTickInterval = 10 * time.Second
	retryBatchSize    = 50
	retryBackoffBase  = 30 * time.Second
	retryBackoffMax   = 10 * time.Minute
)

// retryBaseDelay is the first in-process backoff step of withRetry.
var retryBaseDelay = time.Second

// RetrySchedulerConfig holds all dependencies for the retry goroutine.
type RetrySchedulerConfig struct {
	RDB      *redis.Client
	Interval time.Duration
	// Hold reports whether jobs of the given type should stay parked for now,
	// e.g. email while the SMTP breaker is open.
	Hold func(jobType string) bool
}

// StartRetryScheduler launches a background goroutine that periodically
// requeues jobs whose retry time has passed. It stops with ctx.
func StartRetryScheduler(ctx context.Context, cfg RetrySchedulerConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Msg("retry_scheduler: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_scheduler: shutting down")
				return
			case now := <-ticker.C:
				if n, err := promoteDue(ctx, cfg, now); err != nil {
					log.Error().Err(err).Msg("retry_scheduler: promote failed")
				} else if n > 0 {
					log.Info().Int("count", n).Msg("retry_scheduler: jobs requeued")
				}
			}
		}
	}()
}

func scheduleRetry(ctx context.Context, rdb *redis.Client, job Job, at time.Time) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.ZAdd(ctx, RetryKey, redis.Z{Score: float64(at.Unix()), Member: encoded}).Err()
}

// promoteDue requeues up to retryBatchSize due jobs and returns how many moved.
// ZREM decides ownership so concurrent schedulers never requeue a job twice.
func promoteDue(ctx context.Context, cfg RetrySchedulerConfig, now time.Time) (int, error) {
	members, err := cfg.RDB.ZRangeByScore(ctx, RetryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, m := range members {
		var job Job
		if err := json.Unmarshal([]byte(m), &job); err != nil {
			cfg.RDB.ZRem(ctx, RetryKey, m)
			SendToDLQ(ctx, cfg.RDB, Job{Queue: RetryKey, Payload: json.RawMessage(m)}, ReasonMalformed, err)
			continue
		}
		if cfg.Hold != nil && cfg.Hold(job.Type) {
			continue
		}
		removed, err := cfg.RDB.ZRem(ctx, RetryKey, m).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue // another scheduler took it
		}
		if err := cfg.RDB.LPush(ctx, job.Queue, m).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// computeRetryBackoff doubles from 30s per attempt, capped at 10 minutes.
func computeRetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := retryBackoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= retryBackoffMax {
			return retryBackoffMax
		}
	}
	return d
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, then 1s, 2s, ...). Permanent failures stop the loop.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := retryBaseDelay * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
