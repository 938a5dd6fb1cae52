package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/genai"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/repository"
)

// ImageWorker consumes generate_images_queue: for each worksheet it extracts
// visual ideas from the passage and renders one illustration per idea. The
// whole pipeline is best effort; a worksheet without images is still complete.
type ImageWorker struct {
	repo *repository.WorksheetRepository
	ai   *genai.Client
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewImageWorker creates a new ImageWorker.
func NewImageWorker(repo *repository.WorksheetRepository, ai *genai.Client, rdb *redis.Client, log zerolog.Logger) *ImageWorker {
	return &ImageWorker{
		repo: repo,
		ai:   ai,
		rdb:  rdb,
		log:  log.With().Str("component", "image_worker").Logger(),
	}
}

type imageJobPayload struct {
	WorksheetID string `json:"worksheet_id"`
}

// Start runs the consume loop until ctx is cancelled. In-flight jobs are
// abandoned on shutdown; the queue keeps anything not yet popped. Call in a
// goroutine.
func (w *ImageWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Image worker up")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Image worker down")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ImageWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.GenerateImagesQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload imageJobPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	// Generation jobs are paid API calls; failures are logged, never retried.
	if err := w.illustrate(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("worksheet_id", payload.WorksheetID).
			Msg("Illustration pipeline failed")
	}
}

func (w *ImageWorker) illustrate(ctx context.Context, p *imageJobPayload) error {
	id, err := uuid.Parse(p.WorksheetID)
	if err != nil {
		return err
	}

	ws, err := w.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ideas, err := w.ai.ExtractVisualIdeas(ctx, ws.Passage)
	if err != nil {
		return err
	}

	var images []model.TextImage
	for _, idea := range ideas {
		url, err := w.ai.GenerateImage(ctx, idea)
		if err != nil {
			w.log.Warn().Err(err).Str("idea", idea).Msg("Image render failed, skipping")
			continue
		}
		if url == "" {
			continue
		}
		images = append(images, model.TextImage{Idea: idea, URL: url})
	}
	if len(images) == 0 {
		w.log.Info().Str("worksheet_id", p.WorksheetID).Msg("No images produced")
		return nil
	}

	if err := w.repo.UpdateImages(ctx, id, append(ws.Images, images...)); err != nil {
		return err
	}

	// Drop the stale cached payload; the next session load refills it.
	w.rdb.Del(ctx, config.CacheKey.WorksheetPayloadKey(p.WorksheetID))

	w.log.Info().
		Str("worksheet_id", p.WorksheetID).
		Int("count", len(images)).
		Msg("Illustrations attached")
	return nil
}
