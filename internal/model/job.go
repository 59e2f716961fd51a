package model

import "time"

// JobStatus represents the lifecycle state of a research job.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusResearching JobStatus = "researching"
	JobStatusCurating    JobStatus = "curating"
	JobStatusComplete    JobStatus = "complete"
	JobStatusFailed      JobStatus = "failed"
)

// Job is one end-to-end request to research a company.
type Job struct {
	ID               string              `json:"id"`
	Company          string              `json:"company"`
	Industry         string              `json:"industry,omitempty"`
	CompanyURL       string              `json:"company_url,omitempty"`
	Status           JobStatus           `json:"status"`
	Error            string              `json:"error,omitempty"`
	EnrichmentCounts *EnrichmentSnapshot `json:"enrichment_counts,omitempty"`
	EmployeeCount    map[string]int      `json:"employee_count,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Report is the persisted final snapshot for a completed job.
type Report struct {
	JobID            string              `json:"job_id"`
	Content          string              `json:"content"`
	References       []string            `json:"references"`
	Sections         []string            `json:"sections"`
	Queries          map[string][]string `json:"queries"`
	EnrichmentCounts *EnrichmentSnapshot `json:"enrichment_counts"`
	EmployeeCount    map[string]int      `json:"employee_count"`
	CreatedAt        time.Time           `json:"created_at"`
}
