package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/waraqati/waraqa-backend/internal/middleware"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/response"
	"github.com/waraqati/waraqa-backend/internal/service"
	"github.com/waraqati/waraqa-backend/internal/validator"
)

// WorksheetHandler handles worksheet CRUD and enrichment endpoints.
type WorksheetHandler struct {
	worksheets *service.WorksheetService
}

// NewWorksheetHandler creates a new WorksheetHandler.
func NewWorksheetHandler(worksheets *service.WorksheetService) *WorksheetHandler {
	return &WorksheetHandler{worksheets: worksheets}
}

// Generate godoc
// POST /api/v1/worksheets
// Generates and persists a complete tiered worksheet for a passage.
func (h *WorksheetHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GenerateWorksheetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	w, err := h.worksheets.Generate(c.Request.Context(), claims.TeacherID, req)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"worksheet": w})
}

// List godoc
// GET /api/v1/worksheets?page=1&per_page=10
// Lists the teacher's worksheets, newest first.
func (h *WorksheetHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	worksheets, total, err := h.worksheets.List(c.Request.Context(), claims.TeacherID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"worksheets": worksheets}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/v1/worksheets/:id
func (h *WorksheetHandler) Get(c *gin.Context) {
	claims, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	w, err := h.worksheets.GetOwned(c.Request.Context(), id, claims.TeacherID)
	if err != nil {
		h.failOwned(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"worksheet": w})
}

// Delete godoc
// DELETE /api/v1/worksheets/:id
func (h *WorksheetHandler) Delete(c *gin.Context) {
	claims, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	if err := h.worksheets.Delete(c.Request.Context(), id, claims.TeacherID); err != nil {
		h.failOwned(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AddImage godoc
// POST /api/v1/worksheets/:id/images
// Generates one illustration from a teacher-supplied idea.
func (h *WorksheetHandler) AddImage(c *gin.Context) {
	claims, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	var req model.AddImageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	img, err := h.worksheets.AddImage(c.Request.Context(), id, claims.TeacherID, req.Idea)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageInFlight):
			response.Fail(c, http.StatusConflict, response.ErrImageBusy)
		case errors.Is(err, service.ErrWorksheetNotFound), errors.Is(err, service.ErrNotOwner):
			h.failOwned(c, err)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"image": img})
}

// Speech godoc
// POST /api/v1/worksheets/:id/speech
// Returns the passage as base64 audio for read-aloud playback.
func (h *WorksheetHandler) Speech(c *gin.Context) {
	claims, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	audio, err := h.worksheets.Synthesize(c.Request.Context(), id, claims.TeacherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorksheetNotFound), errors.Is(err, service.ErrNotOwner):
			h.failOwned(c, err)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrSpeechFailed)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"audio": audio, "format": "mp3"})
}

// ownedTarget extracts the claims and worksheet id shared by every
// per-worksheet endpoint.
func (h *WorksheetHandler) ownedTarget(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, id, true
}

func (h *WorksheetHandler) failOwned(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorksheetNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotWorksheetAuthor)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
