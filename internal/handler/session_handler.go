package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/waraqati/waraqa-backend/internal/middleware"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/response"
	"github.com/waraqati/waraqa-backend/internal/service"
	"github.com/waraqati/waraqa-backend/internal/session"
	"github.com/waraqati/waraqa-backend/internal/validator"
)

// SessionHandler exposes the live worksheet session state machine over HTTP.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type questionTarget struct {
	Tier  string `json:"tier" binding:"required"`
	Index int    `json:"index" binding:"min=0"`
}

func (t questionTarget) id() (session.QuestionID, bool) {
	tier := model.Tier(t.Tier)
	if !tier.Valid() {
		return session.QuestionID{}, false
	}
	return session.QuestionID{Tier: tier, Index: t.Index}, true
}

type answerRequest struct {
	questionTarget
	Answer string `json:"answer"`
}

type viewRequest struct {
	TeacherMode *bool   `json:"teacher_mode"`
	PrintBlank  *bool   `json:"print_blank"`
	FocusedTier *string `json:"focused_tier"`
	Expanded    *struct {
		Tier     string `json:"tier" binding:"required"`
		Expanded bool   `json:"expanded"`
	} `json:"expanded"`
}

// Start godoc
// POST /api/v1/worksheets/:id/sessions
// Creates a fresh session over a worksheet. Prior session state never carries
// over.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	worksheetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.sessions.Start(c.Request.Context(), worksheetID, claims.TeacherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorksheetNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotWorksheetAuthor)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// Get godoc
// GET /api/v1/sessions/:id
// Returns the full session view for page reloads.
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	view, err := h.sessions.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Snapshot godoc
// GET /api/v1/sessions/:id/snapshot
// Returns the mirrored answers for a session so a reloading client can
// restore its typed text, even after the live session is gone.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	snap, err := h.sessions.Snapshot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// Close godoc
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	h.sessions.Close(id)
	response.Success(c, http.StatusOK, gin.H{})
}

// Answer godoc
// POST /api/v1/sessions/:id/answers
// Stores the student's current answer text for one question.
func (h *SessionHandler) Answer(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	qid, ok := req.id()
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.sessions.SetAnswer(c.Request.Context(), id, qid, req.Answer); err != nil {
		h.failSession(c, err)
		return
	}

	view, _ := h.sessions.Get(id)
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Interact godoc
// POST /api/v1/sessions/:id/interactions
// Marks a question's first touch, arming its countdown.
func (h *SessionHandler) Interact(c *gin.Context) {
	h.questionAction(c, func(id uuid.UUID, qid session.QuestionID) error {
		return h.sessions.RecordInteraction(id, qid)
	})
}

// Reveal godoc
// POST /api/v1/sessions/:id/reveals
// Flips one question's reveal flag.
func (h *SessionHandler) Reveal(c *gin.Context) {
	h.questionAction(c, func(id uuid.UUID, qid session.QuestionID) error {
		return h.sessions.ToggleReveal(id, qid)
	})
}

// Evaluate godoc
// POST /api/v1/sessions/:id/evaluations
// Grades one open-ended answer through the generative collaborator.
func (h *SessionHandler) Evaluate(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req questionTarget
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	qid, ok := req.id()
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	result, err := h.sessions.Evaluate(c.Request.Context(), id, qid)
	if err != nil {
		h.failSessionWith(c, err, response.ErrEvaluationFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"evaluation": result})
}

// Bonus godoc
// POST /api/v1/sessions/:id/bonus
// Appends extra questions at one Bloom level to a tier bucket.
func (h *SessionHandler) Bonus(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req model.BonusQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !req.Tier.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	view, err := h.sessions.GenerateBonus(c.Request.Context(), id, req)
	if err != nil {
		h.failSessionWith(c, err, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// StartTimer godoc
// POST /api/v1/sessions/:id/timer
// Starts the advisory global exam countdown.
func (h *SessionHandler) StartTimer(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.StartGlobalTimer(id); err != nil {
		h.failSession(c, err)
		return
	}

	view, _ := h.sessions.Get(id)
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// UpdateView godoc
// PATCH /api/v1/sessions/:id/view
// Adjusts presentation flags: teacher mode, print-blank, focus, collapse.
func (h *SessionHandler) UpdateView(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req viewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if req.TeacherMode != nil {
		if err := h.sessions.SetTeacherMode(id, *req.TeacherMode); err != nil {
			h.failSession(c, err)
			return
		}
	}
	if req.PrintBlank != nil {
		if err := h.sessions.SetPrintBlank(id, *req.PrintBlank); err != nil {
			h.failSession(c, err)
			return
		}
	}
	if req.FocusedTier != nil {
		var tier *model.Tier
		if *req.FocusedTier != "" {
			t := model.Tier(*req.FocusedTier)
			if !t.Valid() {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
				return
			}
			tier = &t
		}
		if err := h.sessions.SetFocusedTier(id, tier); err != nil {
			h.failSession(c, err)
			return
		}
	}
	if req.Expanded != nil {
		tier := model.Tier(req.Expanded.Tier)
		if !tier.Valid() {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		if err := h.sessions.SetExpanded(id, tier, req.Expanded.Expanded); err != nil {
			h.failSession(c, err)
			return
		}
	}

	view, err := h.sessions.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

func (h *SessionHandler) questionAction(c *gin.Context, fn func(uuid.UUID, session.QuestionID) error) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req questionTarget
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	qid, ok := req.id()
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := fn(id, qid); err != nil {
		h.failSession(c, err)
		return
	}

	view, _ := h.sessions.Get(id)
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	if claims := middleware.GetClaims(c); claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failSession maps state-machine errors onto the response taxonomy.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	h.failSessionWith(c, err, response.ErrInternal)
}

func (h *SessionHandler) failSessionWith(c *gin.Context, err error, fallback response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, session.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, session.ErrNotOpenEnded):
		response.Fail(c, http.StatusBadRequest, response.ErrNotOpenEnded)
	case errors.Is(err, session.ErrEmptyAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyAnswer)
	case errors.Is(err, session.ErrEvaluationBusy):
		response.Fail(c, http.StatusConflict, response.ErrEvaluationBusy)
	case errors.Is(err, session.ErrBonusBusy):
		response.Fail(c, http.StatusConflict, response.ErrBonusBusy)
	case errors.Is(err, session.ErrNoTotalTime):
		response.Fail(c, http.StatusBadRequest, response.ErrNoTotalTime)
	case errors.Is(err, session.ErrTimerAlreadyRuns):
		response.Fail(c, http.StatusConflict, response.ErrTimerAlreadyRuns)
	case fallback == response.ErrInternal:
		response.Fail(c, http.StatusInternalServerError, fallback)
	default:
		response.Fail(c, http.StatusBadGateway, fallback)
	}
}
