// Package progress delivers best-effort status updates to UI observers.
// Absence of an observer is a valid no-op; delivery failures are logged and
// never propagated to the pipeline.
package progress

import (
	"sync"

	"go.uber.org/zap"
)

// Status tags emitted by the pipeline. The frontend switches on these.
const (
	StatusProcessing           = "processing"
	StatusCategoryStart        = "category_start"
	StatusDocumentKept         = "document_kept"
	StatusCurationComplete     = "curation_complete"
	StatusEnrichmentUpdate     = "enrichment_update"
	StatusEmployeeCountReady   = "employee_count_ready"
	StatusEnrichmentCounts     = "enrichment_counts_updated"
	StatusAnalysisComplete     = "company_analysis_complete"
	StatusResearchComplete     = "research_complete"
	StatusResearchFailed       = "research_failed"
)

// Update is one push message for a job.
type Update struct {
	JobID   string         `json:"job_id"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Result  map[string]any `json:"result,omitempty"`
}

// Notifier pushes status updates for a job. Implementations must be
// fire-and-forget: no acknowledgement, no error return.
type Notifier interface {
	Notify(jobID, status, message string, result map[string]any)
}

// Nop discards all updates.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(string, string, string, map[string]any) {}

// Log writes updates to the global zap logger. Used by the CLI commands
// where no UI is attached.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(jobID, status, message string, result map[string]any) {
	zap.L().Info("progress",
		zap.String("job_id", jobID),
		zap.String("status", status),
		zap.String("message", message),
	)
	_ = result
}

// Recorder captures updates in memory for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
}

// Notify implements Notifier.
func (r *Recorder) Notify(jobID, status, message string, result map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, Update{JobID: jobID, Status: status, Message: message, Result: result})
}

// Updates returns a copy of all recorded updates.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

// ByStatus returns recorded updates matching a status tag.
func (r *Recorder) ByStatus(status string) []Update {
	var out []Update
	for _, u := range r.Updates() {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out
}
