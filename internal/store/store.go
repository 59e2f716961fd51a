// Package store persists research jobs and their final reports.
package store

import (
	"context"

	"github.com/sells-group/research-report/internal/model"
)

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status  model.JobStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the research pipeline.
// Writes are append-only from the pipeline's perspective: jobs move forward
// through statuses and reports are written once at completion.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, company, industry, companyURL string) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error
	UpdateJobError(ctx context.Context, jobID string, errMsg string) error
	UpdateJobEnrichment(ctx context.Context, jobID string, counts *model.EnrichmentSnapshot, employeeCount map[string]int) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// Reports
	SaveReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, jobID string) (*model.Report, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
