package dto

import "github.com/skolara/timetable-api/internal/engine"

// GenerateRequest asks for a timetable for one section cohort.
type GenerateRequest struct {
	Department         string              `json:"department" validate:"required"`
	Semester           int                 `json:"semester" validate:"required,min=1,max=12"`
	Year               int                 `json:"year" validate:"required,min=1,max=6"`
	Constraints        *engine.Constraints `json:"constraints,omitempty"`
	Optimize           *bool               `json:"optimize,omitempty"`
	MaxResolveAttempts int                 `json:"maxResolveAttempts" validate:"omitempty,min=1"`
	Seed               *int64              `json:"seed,omitempty"`
}

// GenerateAllRequest asks for an institution-wide run across all classes.
type GenerateAllRequest struct {
	Constraints *engine.Constraints `json:"constraints,omitempty"`
	Seed        *int64              `json:"seed,omitempty"`
	Async       bool                `json:"async"`
}

// GenerateResponse returns the proposal together with its run artifact.
type GenerateResponse struct {
	ProposalID string         `json:"proposalId"`
	Result     *engine.Result `json:"result"`
}

// GenerateAllResponse covers both synchronous and queued institution runs.
type GenerateAllResponse struct {
	RunID  string         `json:"runId"`
	Status string         `json:"status"`
	Result *engine.Result `json:"result,omitempty"`
}

// SaveRequest persists a previously generated proposal.
type SaveRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	Department string `form:"department" json:"department"`
	Semester   int    `form:"semester" json:"semester"`
	Year       int    `form:"year" json:"year"`
	Status     string `form:"status" json:"status"`
	Page       int    `form:"page" json:"page"`
	PageSize   int    `form:"pageSize" json:"pageSize"`
}
