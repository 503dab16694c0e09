package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/skolara/timetable-api/internal/dto"
	"github.com/skolara/timetable-api/internal/engine"
	"github.com/skolara/timetable-api/internal/models"
	"github.com/skolara/timetable-api/pkg/cache"
	appErrors "github.com/skolara/timetable-api/pkg/errors"
	"github.com/skolara/timetable-api/pkg/export"
	"github.com/skolara/timetable-api/pkg/jobs"
)

type courseReader interface {
	ListForSection(ctx context.Context, department string, semester, year int) ([]models.Course, error)
	ListAll(ctx context.Context) ([]models.Course, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type roomReader interface {
	ListAvailable(ctx context.Context) ([]models.Room, error)
}

type classReader interface {
	ListAll(ctx context.Context) ([]models.Class, error)
}

type timetableRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.Timetable) error
	InsertRows(ctx context.Context, exec sqlx.ExtContext, rows []models.TimetableRow) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	ListRows(ctx context.Context, timetableID string) ([]models.TimetableRow, error)
	Delete(ctx context.Context, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationObserver interface {
	ObserveGeneration(mode, status string, elapsed time.Duration, placementRatio float64)
}

// Run lifecycle states reported for asynchronous institution-wide runs.
const (
	RunStatusQueued    = "queued"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	institutionJobType = "institution-generation"
)

// TimetableService orchestrates generation runs, keeps proposals until they
// are persisted, and exposes stored timetables for listing and export.
type TimetableService struct {
	courses    courseReader
	teachers   teacherReader
	rooms      roomReader
	classes    classReader
	timetables timetableRepository
	tx         txProvider
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    generationObserver
	store      *proposalStore
	runs       *cache.ResultCache
	queue      *jobs.Queue
	cfg        TimetableServiceConfig

	mu sync.Mutex
}

// TimetableServiceConfig governs proposal retention and engine budgets.
type TimetableServiceConfig struct {
	ProposalTTL        time.Duration
	ResolveAttempts    int
	OptimizeIterations int
}

// NewTimetableService wires scheduling dependencies.
func NewTimetableService(
	courses courseReader,
	teachers teacherReader,
	rooms roomReader,
	classes classReader,
	timetables timetableRepository,
	tx txProvider,
	runs *cache.ResultCache,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics generationObserver,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &TimetableService{
		courses:    courses,
		teachers:   teachers,
		rooms:      rooms,
		classes:    classes,
		timetables: timetables,
		tx:         tx,
		runs:       runs,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		store:      newProposalStore(cfg.ProposalTTL),
		cfg:        cfg,
	}
}

// AttachQueue hands the service the worker queue used for asynchronous
// institution-wide runs. Called once during wiring, before Start.
func (s *TimetableService) AttachQueue(q *jobs.Queue) {
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
}

// Generate runs the engine for one section cohort and stores the outcome as
// a proposal that Save can later persist.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	constraints := s.constraintsFor(req.Constraints)
	opts := s.optionsFor(req.Optimize, req.MaxResolveAttempts, req.Seed)

	courses, err := s.courses.ListForSection(ctx, req.Department, req.Semester, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	started := time.Now()
	result, err := engine.NewGenerator(constraints, opts, s.logger).Generate(ctx, courses, teachers, rooms)
	s.observe("section", started, result, err)
	if err != nil {
		return nil, err
	}

	proposal := timetableProposal{
		ProposalID:  uuid.NewString(),
		Department:  req.Department,
		Semester:    req.Semester,
		Year:        req.Year,
		Constraints: constraints,
		Options:     opts,
		Result:      result,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("section timetable generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("department", req.Department),
		zap.Int("semester", req.Semester),
		zap.Int("assigned", result.Stats.AssignedSessions),
		zap.Int("total", result.Stats.TotalSessions),
	)

	return &dto.GenerateResponse{ProposalID: proposal.ProposalID, Result: result}, nil
}

// GenerateAll schedules every registered class in one run. With Async set
// the run is queued and callers poll RunResult with the returned run ID.
func (s *TimetableService) GenerateAll(ctx context.Context, req dto.GenerateAllRequest) (*dto.GenerateAllResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution generation payload")
	}
	runID := uuid.NewString()

	if !req.Async {
		result, err := s.runInstitution(ctx, req)
		if err != nil {
			return nil, err
		}
		resp := &dto.GenerateAllResponse{RunID: runID, Status: RunStatusCompleted, Result: result}
		if s.runs != nil {
			if cacheErr := s.runs.Put(ctx, runID, resp); cacheErr != nil {
				s.logger.Warn("failed to cache institution run", zap.String("run_id", runID), zap.Error(cacheErr))
			}
		}
		return resp, nil
	}

	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background queue unavailable")
	}
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run result cache unavailable")
	}

	pending := &dto.GenerateAllResponse{RunID: runID, Status: RunStatusQueued}
	if err := s.runs.Put(ctx, runID, pending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register run")
	}
	job := jobs.Job{
		ID:      runID,
		Type:    institutionJobType,
		Payload: institutionRunPayload{RunID: runID, Request: req},
	}
	if err := queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue institution run")
	}
	return pending, nil
}

// HandleInstitutionJob is the queue handler for asynchronous runs.
func (s *TimetableService) HandleInstitutionJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(institutionRunPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	result, err := s.runInstitution(ctx, payload.Request)
	resp := &dto.GenerateAllResponse{RunID: payload.RunID, Status: RunStatusCompleted, Result: result}
	if err != nil {
		s.logger.Error("institution run failed", zap.String("run_id", payload.RunID), zap.Error(err))
		resp = &dto.GenerateAllResponse{RunID: payload.RunID, Status: RunStatusFailed}
	}
	if cacheErr := s.runs.Put(ctx, payload.RunID, resp); cacheErr != nil {
		return fmt.Errorf("store run %s outcome: %w", payload.RunID, cacheErr)
	}
	return err
}

// RunResult returns the cached outcome of an institution-wide run.
func (s *TimetableService) RunResult(ctx context.Context, runID string) (*dto.GenerateAllResponse, error) {
	if runID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run result cache unavailable")
	}
	var resp dto.GenerateAllResponse
	if err := s.runs.Get(ctx, runID, &resp); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run result")
	}
	return &resp, nil
}

func (s *TimetableService) runInstitution(ctx context.Context, req dto.GenerateAllRequest) (*engine.Result, error) {
	constraints := s.constraintsFor(req.Constraints)
	opts := s.optionsFor(nil, 0, req.Seed)

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	started := time.Now()
	result, err := engine.NewMultiClassGenerator(constraints, opts, s.logger).Generate(ctx, classes, courses, teachers, rooms)
	s.observe("institution", started, result, err)
	return result, err
}

// Save persists a proposal as a draft timetable, optionally publishing it in
// the same transaction.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if critical := criticalConflicts(proposal.Result.Conflicts); critical > 0 {
		return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposal carries %d critical conflicts", critical))
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"stats":      proposal.Result.Stats,
		"unassigned": len(proposal.Result.Unassigned),
		"conflicts":  len(proposal.Result.Conflicts),
		"seed":       proposal.Options.Seed,
		"optimized":  proposal.Options.Optimize,
		"generated":  proposal.RequestedAt,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return "", err
	}

	record := &models.Timetable{
		Department: proposal.Department,
		Semester:   proposal.Semester,
		Year:       proposal.Year,
		Status:     models.TimetableStatusDraft,
		Meta:       types.JSONText(metaBytes),
	}
	if err = s.timetables.Create(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return "", err
	}

	rows := rowsFromEntries(record.ID, proposal.Constraints, proposal.Result.Entries)
	if err = s.timetables.InsertRows(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable rows")
		return "", err
	}

	if req.Publish {
		if err = s.timetables.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	return record.ID, nil
}

// List returns stored timetables matching the query with pagination.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	filter := models.TimetableFilter{
		Department: query.Department,
		Semester:   query.Semester,
		Year:       query.Year,
		Status:     strings.ToUpper(query.Status),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	list, total, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Rows returns the teaching periods of a stored timetable.
func (s *TimetableService) Rows(ctx context.Context, timetableID string) ([]models.TimetableRow, error) {
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	rows, err := s.timetables.ListRows(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable rows")
	}
	return rows, nil
}

// Export renders a stored timetable as CSV or PDF and returns the payload
// with a download filename.
func (s *TimetableService) Export(ctx context.Context, timetableID, format string) ([]byte, string, error) {
	rows, err := s.Rows(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}
	records, err := s.exportRecords(ctx, rows)
	if err != nil {
		return nil, "", err
	}

	switch strings.ToLower(format) {
	case "", "csv":
		payload, renderErr := export.NewCSVExporter().Render(records)
		if renderErr != nil {
			return nil, "", appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, fmt.Sprintf("timetable-%s.csv", timetableID), nil
	case "pdf":
		payload, renderErr := export.NewPDFExporter("Weekly Timetable").Render(records)
		if renderErr != nil {
			return nil, "", appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, fmt.Sprintf("timetable-%s.pdf", timetableID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// Delete removes a draft timetable. Published timetables are immutable.
func (s *TimetableService) Delete(ctx context.Context, timetableID string) error {
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, timetableID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

func (s *TimetableService) constraintsFor(override *engine.Constraints) engine.Constraints {
	if override != nil {
		return *override
	}
	return engine.DefaultConstraints()
}

func (s *TimetableService) optionsFor(optimize *bool, attempts int, seed *int64) engine.Options {
	opts := engine.DefaultOptions()
	if s.cfg.ResolveAttempts > 0 {
		opts.MaxResolveAttempts = s.cfg.ResolveAttempts
	}
	if s.cfg.OptimizeIterations > 0 {
		opts.OptimizeIterations = s.cfg.OptimizeIterations
	}
	if optimize != nil {
		opts.Optimize = *optimize
	}
	if attempts > 0 {
		opts.MaxResolveAttempts = attempts
	}
	if seed != nil {
		opts.Seed = *seed
	}
	return opts
}

func (s *TimetableService) observe(mode string, started time.Time, result *engine.Result, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	ratio := 0.0
	if err != nil {
		status = "error"
	} else if result != nil && result.Stats.TotalSessions > 0 {
		ratio = float64(result.Stats.AssignedSessions) / float64(result.Stats.TotalSessions)
	}
	s.metrics.ObserveGeneration(mode, status, time.Since(started), ratio)
}

func (s *TimetableService) exportRecords(ctx context.Context, rows []models.TimetableRow) ([]export.TimetableRecord, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	teacherNames := lo.SliceToMap(teachers, func(t models.Teacher) (string, string) { return t.ID, t.FullName })
	roomNames := lo.SliceToMap(rooms, func(r models.Room) (string, string) { return r.ID, r.Name })

	records := make([]export.TimetableRecord, 0, len(rows))
	for _, row := range rows {
		teacher := teacherNames[row.TeacherID]
		if teacher == "" {
			teacher = row.TeacherID
		}
		room := roomNames[row.RoomID]
		if room == "" {
			room = row.RoomID
		}
		records = append(records, export.TimetableRecord{
			Day:        dayName(row.DayOfWeek),
			StartTime:  row.StartTime,
			EndTime:    row.EndTime,
			CourseCode: row.CourseCode,
			Kind:       row.Kind,
			Teacher:    teacher,
			Room:       room,
			Class:      row.ClassID,
		})
	}
	return records, nil
}

// rowsFromEntries maps engine output onto persisted rows. The engine emits
// one entry per occupied period, so a two-period practical session lands as
// two adjacent rows with contiguous wall-clock windows.
func rowsFromEntries(timetableID string, constraints engine.Constraints, entries []engine.Entry) []models.TimetableRow {
	rows := make([]models.TimetableRow, 0, len(entries))
	for _, e := range entries {
		start, end := constraints.PeriodClock(e.Period)
		rows = append(rows, models.TimetableRow{
			TimetableID: timetableID,
			CourseID:    e.CourseID,
			CourseCode:  e.CourseCode,
			TeacherID:   e.TeacherID,
			RoomID:      e.RoomID,
			ClassID:     e.ClassID,
			DayOfWeek:   e.Day,
			StartTime:   start,
			EndTime:     end,
			Kind:        string(e.Kind),
		})
	}
	return rows
}

func criticalConflicts(conflicts []engine.ConflictReport) int {
	return lo.CountBy(conflicts, func(c engine.ConflictReport) bool {
		return c.Severity == engine.SeverityCritical
	})
}

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func dayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return fmt.Sprintf("Day %d", day)
	}
	return dayNames[day]
}

type institutionRunPayload struct {
	RunID   string
	Request dto.GenerateAllRequest
}

type timetableProposal struct {
	ProposalID  string
	Department  string
	Semester    int
	Year        int
	Constraints engine.Constraints
	Options     engine.Options
	Result      *engine.Result
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
