package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skolara/timetable-api/internal/dto"
	"github.com/skolara/timetable-api/internal/models"
	"github.com/skolara/timetable-api/internal/service"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
	"github.com/skolara/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
	GenerateAll(ctx context.Context, req dto.GenerateAllRequest) (*dto.GenerateAllResponse, error)
	RunResult(ctx context.Context, runID string) (*dto.GenerateAllResponse, error)
	Save(ctx context.Context, req dto.SaveRequest) (string, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error)
	Rows(ctx context.Context, id string) ([]models.TimetableRow, error)
	Export(ctx context.Context, id, format string) ([]byte, string, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler exposes generation and timetable endpoints.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate builds a timetable proposal for one section cohort.
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateAll schedules every registered class, synchronously or queued.
func (h *TimetableHandler) GenerateAll(c *gin.Context) {
	var req dto.GenerateAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate-all payload"))
		return
	}
	result, err := h.service.GenerateAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Status == service.RunStatusQueued {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result, nil)
}

// RunStatus reports the outcome of a queued institution-wide run.
func (h *TimetableHandler) RunStatus(c *gin.Context) {
	result, err := h.service.RunResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save persists a generated proposal as a stored timetable.
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"timetableId": id})
}

// List returns stored timetables with pagination.
func (h *TimetableHandler) List(c *gin.Context) {
	query := dto.TimetableQuery{
		Department: c.Query("department"),
		Semester:   queryInt(c, "semester"),
		Year:       queryInt(c, "year"),
		Status:     c.Query("status"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "pageSize"),
	}
	list, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// Rows returns the teaching periods of one stored timetable.
func (h *TimetableHandler) Rows(c *gin.Context) {
	rows, err := h.service.Rows(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export streams a stored timetable as CSV or PDF.
func (h *TimetableHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	payload, filename, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}

// Delete removes a draft timetable.
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
