package site

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Report captures high-level metrics about a site build.
//
// The report is deliberately not written into the output tree: it carries
// per-run values (id, durations) that would break byte-identical rebuilds.
type Report struct {
	BuildID        string                   `json:"build_id"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Documents      int                      `json:"documents"`
	DraftsSkipped  int                      `json:"drafts_skipped"`
	PagesRendered  int                      `json:"pages_rendered"`
	Artifacts      map[string]int           `json:"artifacts"` // format -> count
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Warnings       []string                 `json:"warnings,omitempty"`
	Outcome        BuildOutcome             `json:"outcome"`
	Error          string                   `json:"error,omitempty"`
}

// NewReport constructs a Report with a fresh build ID.
func NewReport() *Report {
	return &Report{
		BuildID:        uuid.NewString(),
		Start:          time.Now(),
		Artifacts:      make(map[string]int),
		StageDurations: make(map[string]time.Duration),
	}
}

// Finish stamps the end time and derives the outcome unless one was set.
func (r *Report) Finish(err error) {
	r.End = time.Now()
	var stageErr *StageError
	switch {
	case errors.As(err, &stageErr) && stageErr.Kind == StageErrorCanceled:
		r.Outcome = OutcomeCanceled
		r.Error = err.Error()
	case err != nil:
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration returns total wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// AddWarning records a non-fatal issue.
func (r *Report) AddWarning(msg string) { r.Warnings = append(r.Warnings, msg) }
