package history

import (
	"time"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
)

// Status is the outcome of an import run.
type Status string

// Run outcomes.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded import.
type Run struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	ArchiveSHA256 string `json:"archive_sha256,omitempty"`
	ArchiveBytes  int64  `json:"archive_bytes"`
	Status        Status `json:"status"`

	// ErrorCode and ErrorMessage are set for failed runs.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	ProjectName       string                    `json:"project_name,omitempty"`
	GroupAddressStyle string                    `json:"group_address_style,omitempty"`
	Language          string                    `json:"language,omitempty"`
	Statistics        etsimport.ParseStatistics `json:"statistics"`

	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Filter narrows List results.
type Filter struct {
	Status Status // optional
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is one page of runs, most recent first.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
