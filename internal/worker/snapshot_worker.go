package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/config"
)

// SnapshotWorker consumes persist_snapshot_queue and mirrors session answers
// into a Redis hash so a reloading client can restore its typed text.
type SnapshotWorker struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "snapshot_worker").Logger(),
	}
}

type snapshotPayload struct {
	SessionID string `json:"session_id"`
	Tier      string `json:"tier"`
	Index     int    `json:"index"`
	Answer    string `json:"answer"`
}

// Start runs the consume loop until ctx is cancelled, then flushes whatever
// is still queued. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Snapshot worker up")

	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background())
			w.log.Info().Msg("Snapshot worker down")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSnapshotQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAnswer(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Msg("Persist error, requeued; backing off 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SnapshotWorker) persistAnswer(ctx context.Context, p *snapshotPayload) error {
	key := config.CacheKey.SessionAnswersKey(p.SessionID)
	field := fmt.Sprintf("%s:%d", p.Tier, p.Index)

	pipe := w.rdb.Pipeline()
	pipe.HSet(ctx, key, field, p.Answer)
	pipe.Expire(ctx, key, w.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// drain flushes the queue on shutdown so typed answers survive a restart.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSnapshotQueue).Result()
		if err != nil {
			break
		}

		var payload snapshotPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAnswer(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Snapshot queue drained")
	}
}
