package worker

// Receipt and email jobs that cannot complete are parked in a dead letter
// list per source queue (dlq:{queue}) so the sale they belong to can be
// found and the receipt reissued by hand.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQReason classifies why a job was dead-lettered.
type DLQReason string

const (
	// ReasonMalformed: the envelope or payload could not be decoded.
	ReasonMalformed DLQReason = "malformed"
	// ReasonNoHandler: no worker is registered for the job type.
	ReasonNoHandler DLQReason = "no_handler"
	// ReasonPermanent: the job failed in a way retrying cannot fix (e.g. the sale is gone).
	ReasonPermanent DLQReason = "permanent"
	// ReasonExhausted: the job failed MaxJobAttempts times.
	ReasonExhausted DLQReason = "exhausted"
)

// DLQEntry is one dead-lettered receipt or email job.
type DLQEntry struct {
	JobID    string          `json:"job_id,omitempty"`
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	SaleID   int64           `json:"sale_id,omitempty"` // 0 when the payload carries none
	Reason   DLQReason       `json:"reason"`
	Detail   string          `json:"detail,omitempty"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
	Payload  json.RawMessage `json:"payload"`
}

// saleIDOf extracts the sale a receipt or email job was issued for.
func saleIDOf(job Job) int64 {
	var ref struct {
		SaleID int64 `json:"sale_id"`
	}
	if json.Unmarshal(job.Payload, &ref) != nil {
		return 0
	}
	return ref.SaleID
}

// SendToDLQ dead-letters job. cause may be nil.
func SendToDLQ(ctx context.Context, rdb *redis.Client, job Job, reason DLQReason, cause error) {
	payload := job.Payload
	if !json.Valid(payload) {
		// keep the entry decodable when the envelope itself was garbage
		payload, _ = json.Marshal(string(payload))
	}
	entry := DLQEntry{
		JobID:    job.ID,
		Queue:    job.Queue,
		JobType:  job.Type,
		SaleID:   saleIDOf(job),
		Reason:   reason,
		Attempts: job.Attempts,
		FailedAt: time.Now().UTC(),
		Payload:  payload,
	}
	if cause != nil {
		entry.Detail = cause.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", job.Queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+job.Queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", job.Queue).Int64("sale_id", entry.SaleID).Msg("dlq: push failed")
		return
	}

	log.Warn().
		Str("queue", job.Queue).
		Str("job_type", job.Type).
		Int64("sale_id", entry.SaleID).
		Str("reason", string(reason)).
		Str("detail", entry.Detail).
		Int("attempts", job.Attempts).
		Msg("dlq: job dead-lettered")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ReadDLQ returns up to limit entries of queue's DLQ, newest first, without
// removing them.
func ReadDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
