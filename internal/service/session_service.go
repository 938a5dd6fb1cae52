package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/genai"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/repository"
	"github.com/waraqati/waraqa-backend/internal/session"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// EvaluationResult is the outcome of one answer evaluation.
type EvaluationResult struct {
	Feedback string          `json:"feedback"`
	Score    int             `json:"score"`
	Verdict  session.Verdict `json:"verdict"`
}

// SessionService drives live worksheet sessions: creation from a persisted
// worksheet, state-machine actions, evaluation and bonus round-trips, and
// answer snapshots queued for the background worker.
type SessionService struct {
	registry *session.Registry
	repo     *repository.WorksheetRepository
	ai       *genai.Client
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(registry *session.Registry, repo *repository.WorksheetRepository, ai *genai.Client, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		registry: registry,
		repo:     repo,
		ai:       ai,
		rdb:      rdb,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Start creates a fresh session over a worksheet. All runtime state starts
// empty regardless of any previous session on the same worksheet.
func (s *SessionService) Start(ctx context.Context, worksheetID uuid.UUID, authorID int) (session.View, error) {
	w, err := s.loadWorksheet(ctx, worksheetID)
	if err != nil {
		return session.View{}, err
	}
	if w.AuthorID != authorID {
		return session.View{}, ErrNotOwner
	}

	sess := session.New(w)
	s.registry.Put(sess)

	// Map session → worksheet for snapshot consumers.
	key := config.CacheKey.SessionWorksheetKey(sess.ID.String())
	if err := s.rdb.Set(ctx, key, worksheetID.String(), worksheetCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Cache session mapping failed")
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("worksheet_id", worksheetID.String()).
		Msg("Session started")
	return sess.Snapshot(), nil
}

// Get returns the full session view.
func (s *SessionService) Get(id uuid.UUID) (session.View, error) {
	sess := s.registry.Get(id)
	if sess == nil {
		return session.View{}, ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

// Lookup returns the live session for streaming consumers.
func (s *SessionService) Lookup(id uuid.UUID) (*session.Session, error) {
	sess := s.registry.Get(id)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close ends a session and removes it from the registry.
func (s *SessionService) Close(id uuid.UUID) {
	s.registry.Remove(id)
}

// SetAnswer stores an answer and queues it for the snapshot worker.
func (s *SessionService) SetAnswer(ctx context.Context, id uuid.UUID, qid session.QuestionID, text string) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := sess.SetAnswer(qid, text); err != nil {
		return err
	}
	s.enqueueSnapshot(ctx, id, qid, text)
	return nil
}

// RecordInteraction marks a question's first touch.
func (s *SessionService) RecordInteraction(id uuid.UUID, qid session.QuestionID) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	return sess.RecordInteraction(qid)
}

// ToggleReveal flips one question's reveal flag.
func (s *SessionService) ToggleReveal(id uuid.UUID, qid session.QuestionID) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	return sess.ToggleReveal(qid)
}

// SetTeacherMode toggles the answers-shown override.
func (s *SessionService) SetTeacherMode(id uuid.UUID, on bool) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.SetTeacherMode(on)
	return nil
}

// SetPrintBlank toggles print-blank mode.
func (s *SessionService) SetPrintBlank(id uuid.UUID, on bool) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.SetPrintBlank(on)
	return nil
}

// SetFocusedTier restricts display to one tier; nil shows all.
func (s *SessionService) SetFocusedTier(id uuid.UUID, tier *model.Tier) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	return sess.SetFocusedTier(tier)
}

// SetExpanded sets one section's expand/collapse flag.
func (s *SessionService) SetExpanded(id uuid.UUID, tier model.Tier, expanded bool) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	return sess.SetExpanded(tier, expanded)
}

// StartGlobalTimer starts the advisory exam countdown.
func (s *SessionService) StartGlobalTimer(id uuid.UUID) error {
	sess := s.registry.Get(id)
	if sess == nil {
		return ErrSessionNotFound
	}
	return sess.StartGlobalTimer()
}

// Evaluate grades one open-ended answer through the generative collaborator.
// The session guards the question with a single-flight slot; a failure leaves
// the question's state exactly as it was.
func (s *SessionService) Evaluate(ctx context.Context, id uuid.UUID, qid session.QuestionID) (*EvaluationResult, error) {
	sess := s.registry.Get(id)
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	criteria := strings.Join(sess.Worksheet().Meta.Criteria, "؛ ")
	input, err := sess.BeginEvaluation(qid, criteria)
	if err != nil {
		return nil, err
	}

	ev, evalErr := s.ai.EvaluateAnswer(ctx, input.Prompt, input.ModelAnswer, input.StudentAnswer, input.Criteria)
	if evalErr != nil {
		sess.FinishEvaluation(qid, "", 0, evalErr)
		s.log.Error().Err(evalErr).Str("session_id", id.String()).Msg("Evaluation failed")
		return nil, fmt.Errorf("evaluate answer: %w", evalErr)
	}
	sess.FinishEvaluation(qid, ev.Feedback, ev.Score, nil)

	verdict, _ := sess.VerdictFor(qid)
	return &EvaluationResult{Feedback: ev.Feedback, Score: ev.Score, Verdict: verdict}, nil
}

// GenerateBonus appends extra questions for one Bloom level to a tier bucket.
// One bonus request per session at a time, across all tiers.
func (s *SessionService) GenerateBonus(ctx context.Context, id uuid.UUID, req model.BonusQuestionsRequest) (session.View, error) {
	sess := s.registry.Get(id)
	if sess == nil {
		return session.View{}, ErrSessionNotFound
	}

	if err := sess.BeginBonus(req.Tier); err != nil {
		return session.View{}, err
	}

	w := sess.Worksheet()
	questions, err := s.ai.GenerateBonusQuestions(ctx, w.Passage, req.Level, w.Meta.Grade, req.Count)
	if err != nil {
		sess.FinishBonus(req.Tier, nil, err)
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Bonus generation failed")
		return session.View{}, fmt.Errorf("generate bonus questions: %w", err)
	}
	sess.FinishBonus(req.Tier, questions, nil)

	return sess.Snapshot(), nil
}

// RestoredAnswer is one mirrored answer from the snapshot hash.
type RestoredAnswer struct {
	Tier   model.Tier `json:"tier"`
	Index  int        `json:"index"`
	Answer string     `json:"answer"`
}

// SessionSnapshot is what outlives a session in Redis: the worksheet it ran
// over plus the last answer text per question.
type SessionSnapshot struct {
	SessionID   string           `json:"session_id"`
	WorksheetID string           `json:"worksheet_id"`
	Answers     []RestoredAnswer `json:"answers"`
}

// Snapshot returns the mirrored answers for a session so a reloading client
// can restore its typed text. Works whether or not the session is still
// live; the session→worksheet mapping doubles as the existence check.
func (s *SessionService) Snapshot(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	worksheetID, err := s.rdb.Get(ctx, config.CacheKey.SessionWorksheetKey(id.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session mapping: %w", err)
	}

	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(id.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("read answer snapshot: %w", err)
	}

	return &SessionSnapshot{
		SessionID:   id.String(),
		WorksheetID: worksheetID,
		Answers:     restoredAnswers(fields),
	}, nil
}

// restoredAnswers converts the hash fields ("tier:index" → answer) into a
// list ordered by tier then index. Malformed fields are skipped.
func restoredAnswers(fields map[string]string) []RestoredAnswer {
	answers := make([]RestoredAnswer, 0, len(fields))
	for field, answer := range fields {
		tierPart, indexPart, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		tier := model.Tier(tierPart)
		index, err := strconv.Atoi(indexPart)
		if !tier.Valid() || err != nil || index < 0 {
			continue
		}
		answers = append(answers, RestoredAnswer{Tier: tier, Index: index, Answer: answer})
	}

	sort.Slice(answers, func(i, j int) bool {
		if answers[i].Tier != answers[j].Tier {
			return tierRank(answers[i].Tier) < tierRank(answers[j].Tier)
		}
		return answers[i].Index < answers[j].Index
	})
	return answers
}

func tierRank(t model.Tier) int {
	for i, tier := range model.Tiers {
		if tier == t {
			return i
		}
	}
	return len(model.Tiers)
}

// loadWorksheet prefers the Redis payload cache and falls back to Postgres.
func (s *SessionService) loadWorksheet(ctx context.Context, id uuid.UUID) (*model.Worksheet, error) {
	key := config.CacheKey.WorksheetPayloadKey(id.String())
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var w model.Worksheet
		if err := json.Unmarshal(data, &w); err == nil {
			return &w, nil
		}
		s.log.Warn().Str("worksheet_id", id.String()).Msg("Corrupt cached payload, falling back to database")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Payload cache read failed")
	}

	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrWorksheetNotFound
	}
	return w, nil
}

type snapshotPayload struct {
	SessionID string `json:"session_id"`
	Tier      string `json:"tier"`
	Index     int    `json:"index"`
	Answer    string `json:"answer"`
}

// enqueueSnapshot pushes one answer to the persistence queue. Best effort;
// live state is authoritative.
func (s *SessionService) enqueueSnapshot(ctx context.Context, id uuid.UUID, qid session.QuestionID, answer string) {
	raw, _ := json.Marshal(snapshotPayload{
		SessionID: id.String(),
		Tier:      string(qid.Tier),
		Index:     qid.Index,
		Answer:    answer,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Enqueue snapshot failed")
	}
}
