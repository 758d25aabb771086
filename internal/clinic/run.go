package clinic

import "time"

// RunStatus is the persisted state of an import run. Runs that detect
// duplicates pause in duplicates_pending until an operator posts a
// decision for every candidate, then move through finalizing to
// complete. The run document lives in the record store so a pause
// survives a process restart.
type RunStatus string

const (
	RunCreated           RunStatus = "created"
	RunProcessing        RunStatus = "processing"
	RunDuplicatesPending RunStatus = "duplicates_pending"
	RunFinalizing        RunStatus = "finalizing"
	RunComplete          RunStatus = "complete"
	RunFailed            RunStatus = "failed"
)

// DuplicateAction is an operator decision for one flagged duplicate.
type DuplicateAction string

const (
	ActionMerge  DuplicateAction = "merge"  // fill gaps in the existing record
	ActionCreate DuplicateAction = "create" // insert as new despite the match
	ActionSkip   DuplicateAction = "skip"   // discard the candidate
)

// DuplicateCandidate is a processed record flagged as a likely
// duplicate of an existing store entry. The candidate keeps the slug
// it reserved during processing; decisions key on it, and a resume
// re-checks it against the store before a create commits.
type DuplicateCandidate struct {
	Candidate    *Clinic   `json:"candidate"`
	Raw          RawRecord `json:"raw"`
	ExistingID   string    `json:"existingId"`
	ExistingSlug string    `json:"existingSlug"`
	MatchReason  string    `json:"matchReason"`
	Score        float64   `json:"score"`
}

// DuplicateDecision resolves one pending candidate by its reserved slug.
type DuplicateDecision struct {
	CandidateSlug string          `json:"candidateSlug"`
	Action        DuplicateAction `json:"action"`
}

// ImportRun is the persisted record of one import invocation.
type ImportRun struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Actor         string    `json:"actor"`
	Status        RunStatus `json:"status"`
	Total         int       `json:"total"`
	Success       int       `json:"success"`
	Failed        int       `json:"failed"`
	Created       int       `json:"created"`
	Merged        int       `json:"merged"`
	Skipped       int       `json:"skipped"`
	Error         string    `json:"error,omitempty"`
	FailureLogKey string    `json:"failureLogKey,omitempty"`

	Pending []DuplicateCandidate `json:"pending,omitempty"`

	StartedAt  time.Time  `json:"startedAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Summary projects the run into its immutable ImportSummary form.
func (r *ImportRun) Summary(failures []ImportFailure) ImportSummary {
	return ImportSummary{
		RunID:    r.ID,
		Total:    r.Total,
		Success:  r.Success,
		Failed:   r.Failed,
		Created:  r.Created,
		Merged:   r.Merged,
		Skipped:  r.Skipped,
		Pending:  len(r.Pending),
		Failures: failures,
	}
}
