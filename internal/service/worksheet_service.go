package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/genai"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/repository"
)

// Worksheet service errors.
var (
	ErrWorksheetNotFound = errors.New("worksheet not found")
	ErrNotOwner          = errors.New("worksheet belongs to another teacher")
	ErrImageInFlight     = errors.New("image generation already in flight for this worksheet")
)

// worksheetCacheTTL bounds how long a generated payload stays in Redis.
const worksheetCacheTTL = 6 * time.Hour

// WorksheetService owns worksheet generation, persistence and enrichment.
type WorksheetService struct {
	repo *repository.WorksheetRepository
	ai   *genai.Client
	rdb  *redis.Client
	log  zerolog.Logger
	cfg  *config.Config

	mu        sync.Mutex
	imageBusy map[uuid.UUID]bool
}

// NewWorksheetService creates a new WorksheetService.
func NewWorksheetService(cfg *config.Config, repo *repository.WorksheetRepository, ai *genai.Client, rdb *redis.Client, log zerolog.Logger) *WorksheetService {
	return &WorksheetService{
		repo:      repo,
		ai:        ai,
		rdb:       rdb,
		log:       log.With().Str("component", "worksheet_service").Logger(),
		cfg:       cfg,
		imageBusy: make(map[uuid.UUID]bool),
	}
}

// Generate produces a complete worksheet from the teacher's parameters,
// persists it and queues background image generation. The request parameters
// win over whatever the model echoed back in the metadata.
func (s *WorksheetService) Generate(ctx context.Context, authorID int, req model.GenerateWorksheetRequest) (*model.Worksheet, error) {
	draft, err := s.ai.GenerateWorksheet(ctx, req)
	if err != nil {
		return nil, err
	}

	meta := draft.Meta
	meta.Grade = req.Grade
	meta.TextType = req.TextType
	meta.Skill = req.Skill
	meta.Objective = req.Objective
	meta.TotalTimeMinutes = req.TotalTimeMinutes

	w := &model.Worksheet{
		AuthorID: authorID,
		Meta:     meta,
		Passage:  req.Passage,
		Below:    draft.Below,
		Within:   draft.Within,
		Above:    draft.Above,
		Rubric:   draft.Rubric,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("persist worksheet: %w", err)
	}

	s.cachePayload(ctx, w)

	// Illustrations are generated in the background; the worksheet is usable
	// without them.
	s.enqueueImageJob(ctx, w.ID)

	return w, nil
}

// List returns a teacher's worksheets, newest first.
func (s *WorksheetService) List(ctx context.Context, authorID, page, perPage int) ([]model.Worksheet, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 10
	}
	return s.repo.ListByAuthor(ctx, authorID, perPage, (page-1)*perPage)
}

// GetOwned returns a worksheet after verifying ownership.
func (s *WorksheetService) GetOwned(ctx context.Context, id uuid.UUID, authorID int) (*model.Worksheet, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorksheetNotFound
		}
		return nil, err
	}
	if w.AuthorID != authorID {
		return nil, ErrNotOwner
	}
	return w, nil
}

// Delete removes a worksheet and its cached payload.
func (s *WorksheetService) Delete(ctx context.Context, id uuid.UUID, authorID int) error {
	deleted, err := s.repo.Delete(ctx, id, authorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorksheetNotFound
	}
	s.rdb.Del(ctx, config.CacheKey.WorksheetPayloadKey(id.String()))
	return nil
}

// AddImage generates one illustration for a teacher-supplied idea and appends
// it to the worksheet. One request per worksheet at a time.
func (s *WorksheetService) AddImage(ctx context.Context, id uuid.UUID, authorID int, idea string) (*model.TextImage, error) {
	w, err := s.GetOwned(ctx, id, authorID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.imageBusy[id] {
		s.mu.Unlock()
		return nil, ErrImageInFlight
	}
	s.imageBusy[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.imageBusy, id)
		s.mu.Unlock()
	}()

	url, err := s.ai.GenerateImage(ctx, idea)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("image model produced no output")
	}

	img := model.TextImage{Idea: idea, URL: url}
	images := append(w.Images, img)
	if err := s.repo.UpdateImages(ctx, id, images); err != nil {
		return nil, fmt.Errorf("persist images: %w", err)
	}
	w.Images = images
	s.cachePayload(ctx, w)
	return &img, nil
}

// Synthesize returns the passage as base64 audio for read-aloud playback.
func (s *WorksheetService) Synthesize(ctx context.Context, id uuid.UUID, authorID int) (string, error) {
	w, err := s.GetOwned(ctx, id, authorID)
	if err != nil {
		return "", err
	}
	return s.ai.Synthesize(ctx, w.Passage)
}

// cachePayload stores the full worksheet JSON for fast session creation.
// Cache failures are logged and ignored; Postgres remains the source of truth.
func (s *WorksheetService) cachePayload(ctx context.Context, w *model.Worksheet) {
	data, err := json.Marshal(w)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal worksheet payload failed")
		return
	}
	key := config.CacheKey.WorksheetPayloadKey(w.ID.String())
	if err := s.rdb.Set(ctx, key, data, worksheetCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("worksheet_id", w.ID.String()).Msg("Cache worksheet payload failed")
	}
}

func (s *WorksheetService) enqueueImageJob(ctx context.Context, id uuid.UUID) {
	payload, _ := json.Marshal(map[string]string{"worksheet_id": id.String()})
	if err := s.rdb.RPush(ctx, config.WorkerKey.GenerateImagesQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("worksheet_id", id.String()).Msg("Enqueue image job failed")
	}
}
