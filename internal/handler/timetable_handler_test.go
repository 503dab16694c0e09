package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/skolara/timetable-api/internal/dto"
	"github.com/skolara/timetable-api/internal/engine"
	"github.com/skolara/timetable-api/internal/models"
	"github.com/skolara/timetable-api/internal/service"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	captured    dto.GenerateRequest
	capturedAll dto.GenerateAllRequest
	asyncStatus string
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	m.captured = req
	return &dto.GenerateResponse{ProposalID: "proposal-1", Result: &engine.Result{}}, nil
}

func (m *timetableServiceMock) GenerateAll(ctx context.Context, req dto.GenerateAllRequest) (*dto.GenerateAllResponse, error) {
	m.capturedAll = req
	status := m.asyncStatus
	if status == "" {
		status = service.RunStatusCompleted
	}
	return &dto.GenerateAllResponse{RunID: "run-1", Status: status}, nil
}

func (m *timetableServiceMock) RunResult(ctx context.Context, runID string) (*dto.GenerateAllResponse, error) {
	if runID != "run-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found or expired")
	}
	return &dto.GenerateAllResponse{RunID: runID, Status: service.RunStatusCompleted}, nil
}

func (m *timetableServiceMock) Save(ctx context.Context, req dto.SaveRequest) (string, error) {
	return "tt-1", nil
}

func (m *timetableServiceMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	return nil, models.NewPagination(query.Page, query.PageSize, 0), nil
}

func (m *timetableServiceMock) Rows(ctx context.Context, id string) ([]models.TimetableRow, error) {
	return nil, nil
}

func (m *timetableServiceMock) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	return []byte("day,start_time\n"), "timetable-" + id + "." + format, nil
}

func (m *timetableServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestTimetableHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"department":"CS","semester":3,"year":2,"optimize":false}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "CS", mockSvc.captured.Department)
	require.Equal(t, 3, mockSvc.captured.Semester)
	require.NotNil(t, mockSvc.captured.Optimize)
	require.False(t, *mockSvc.captured.Optimize)
}

func TestTimetableHandlerGenerateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"department":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateAllQueued(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{asyncStatus: service.RunStatusQueued}
	handler := &TimetableHandler{service: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate-all", bytes.NewReader([]byte(`{"async":true}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GenerateAll(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.True(t, mockSvc.capturedAll.Async)
}

func TestTimetableHandlerRunStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.GET("/timetables/runs/:id", handler.RunStatus)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables/runs/run-unknown", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerExportHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.GET("/timetables/:id/export", handler.Export)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables/tt-1/export?format=csv", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "timetable-tt-1.csv")
}

func TestTimetableHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/timetables/save", bytes.NewReader([]byte(`{"proposalId":"proposal-1","publish":true}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "tt-1")
}
