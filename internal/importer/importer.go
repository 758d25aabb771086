// Package importer runs bulk clinic imports: per-record normalization
// and enrichment, duplicate detection, bounded batch writes, and a
// resumable run document for operator duplicate review.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/notify"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
	"github.com/dbankston2409/mens-health-finder/internal/slugger"
	"github.com/dbankston2409/mens-health-finder/internal/store"
)

// Options tunes an Importer. Zero values fall back to defaults.
type Options struct {
	// CommitSize is how many clinics accumulate before a batch write.
	// Clamped to the store's per-batch ceiling.
	CommitSize int

	// DuplicateThreshold is the name-similarity cutoff for flagging
	// duplicates, in (0, 1].
	DuplicateThreshold float64

	Notifier notify.Notifier
	Now      func() time.Time
}

// Importer executes import runs sequentially. Records are processed
// one at a time in input order; there is no per-record concurrency, so
// run results are reproducible and the free geocoding fallback's rate
// limit is respected by construction.
type Importer struct {
	store      store.Store
	failures   store.FailureLog
	geocoder   Geocoder
	verifier   WebsiteVerifier
	notifier   notify.Notifier
	commitSize int
	threshold  float64
	now        func() time.Time
}

// New builds an Importer around its collaborators.
func New(s store.Store, flog store.FailureLog, g Geocoder, v WebsiteVerifier, opts Options) *Importer {
	commit := opts.CommitSize
	if commit <= 0 {
		commit = store.DefaultCommitSize
	}
	if commit > store.MaxBatchClinics {
		commit = store.MaxBatchClinics
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Importer{
		store:      s,
		failures:   flog,
		geocoder:   g,
		verifier:   v,
		notifier:   notifier,
		commitSize: commit,
		threshold:  opts.DuplicateThreshold,
		now:        now,
	}
}

// Run imports the records under a fresh run document. When duplicates
// are detected the run pauses in duplicates_pending and the returned
// summary counts those records as pending; Resume finishes the run
// once an operator has decided every candidate.
func (i *Importer) Run(ctx context.Context, records []clinic.RawRecord, source, actor string) (*clinic.ImportSummary, error) {
	now := i.now().UTC()
	run := &clinic.ImportRun{
		ID:        uuid.New().String(),
		Source:    source,
		Actor:     actor,
		Status:    clinic.RunCreated,
		Total:     len(records),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := i.saveRun(ctx, run); err != nil {
		return nil, err
	}
	run.Status = clinic.RunProcessing
	if err := i.saveRun(ctx, run); err != nil {
		return nil, err
	}

	logger.Info("import run started",
		"run_id", run.ID, "source", source, "actor", actor, "total", run.Total)

	uniquer := slugger.NewUniquer(i.store)
	proc := NewProcessor(i.geocoder, i.verifier, uniquer, i.now)
	detector := newDuplicateDetector(i.store, i.threshold)

	var (
		buffer   []*clinic.Clinic
		failures []clinic.ImportFailure
	)
	for _, raw := range records {
		if err := ctx.Err(); err != nil {
			return nil, i.failRun(ctx, run, failures, fmt.Errorf("import canceled: %w", err))
		}

		result, err := proc.Process(ctx, raw, source)
		if err != nil {
			return nil, i.failRun(ctx, run, failures, err)
		}
		if !result.Success {
			failures = append(failures, clinic.ImportFailure{Record: raw, Error: result.Error})
			run.Failed++
			logger.Warn("record rejected", "run_id", run.ID, "row", raw.Row, "reason", result.Error)
			continue
		}

		m, err := detector.find(ctx, result.Clinic)
		if err != nil {
			return nil, i.failRun(ctx, run, failures, err)
		}
		if m != nil {
			run.Pending = append(run.Pending, clinic.DuplicateCandidate{
				Candidate:    result.Clinic,
				Raw:          raw,
				ExistingID:   m.existing.ID,
				ExistingSlug: m.existing.Slug,
				MatchReason:  m.reason,
				Score:        m.score,
			})
			continue
		}

		buffer = append(buffer, result.Clinic)
		if len(buffer) >= i.commitSize {
			if err := i.flush(ctx, run, buffer); err != nil {
				return nil, i.failRun(ctx, run, failures, err)
			}
			buffer = buffer[:0]
		}
	}
	if err := i.flush(ctx, run, buffer); err != nil {
		return nil, i.failRun(ctx, run, failures, err)
	}

	i.persistFailures(ctx, run, failures)

	if len(run.Pending) > 0 {
		run.Status = clinic.RunDuplicatesPending
		if err := i.saveRun(ctx, run); err != nil {
			return nil, err
		}
		logger.Info("import run paused on duplicates",
			"run_id", run.ID, "pending", len(run.Pending))
		i.notifier.RunPaused(ctx, run)
		summary := run.Summary(failures)
		return &summary, nil
	}

	return i.finish(ctx, run, failures)
}

// Resume applies operator decisions to a paused run and finishes it.
// Every pending candidate must have exactly one decision.
func (i *Importer) Resume(ctx context.Context, runID string, decisions []clinic.DuplicateDecision) (*clinic.ImportSummary, error) {
	run, err := i.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if run.Status != clinic.RunDuplicatesPending {
		return nil, fmt.Errorf("run %s is %s, not %s", runID, run.Status, clinic.RunDuplicatesPending)
	}

	byslug := make(map[string]clinic.DuplicateAction, len(decisions))
	for _, d := range decisions {
		switch d.Action {
		case clinic.ActionMerge, clinic.ActionCreate, clinic.ActionSkip:
		default:
			return nil, fmt.Errorf("unknown action %q for %s", d.Action, d.CandidateSlug)
		}
		byslug[d.CandidateSlug] = d.Action
	}
	for _, p := range run.Pending {
		if _, ok := byslug[p.Candidate.Slug]; !ok {
			return nil, fmt.Errorf("no decision for candidate %s", p.Candidate.Slug)
		}
	}

	run.Status = clinic.RunFinalizing
	if err := i.saveRun(ctx, run); err != nil {
		return nil, err
	}
	logger.Info("import run finalizing", "run_id", run.ID, "decisions", len(run.Pending))

	// Slug reservations made while the run was processing lived only in
	// that run's uniquer. Another run may have committed a clinic under a
	// candidate's slug during the pause, so every create re-checks its
	// slug against the store before the write.
	uniquer := slugger.NewUniquer(i.store)

	var buffer []*clinic.Clinic
	for _, p := range run.Pending {
		if err := ctx.Err(); err != nil {
			return nil, i.failRun(ctx, run, nil, fmt.Errorf("resume canceled: %w", err))
		}

		switch byslug[p.Candidate.Slug] {
		case clinic.ActionMerge:
			existing, err := i.store.GetClinic(ctx, p.ExistingID)
			if err != nil {
				return nil, i.failRun(ctx, run, nil, err)
			}
			if existing == nil {
				return nil, i.failRun(ctx, run, nil,
					fmt.Errorf("merge target %s no longer exists", p.ExistingID))
			}
			if clinic.Merge(existing, p.Candidate, i.now().UTC()) {
				if err := i.store.UpdateClinic(ctx, existing); err != nil {
					return nil, i.failRun(ctx, run, nil, err)
				}
			}
			run.Merged++
			run.Success++

		case clinic.ActionCreate:
			base := slugger.Make(p.Candidate.Name, p.Candidate.City, p.Candidate.State)
			if base == "" {
				base = p.Candidate.Slug
			}
			slug, err := uniquer.Ensure(ctx, base)
			if err != nil {
				return nil, i.failRun(ctx, run, nil, fmt.Errorf("reserving slug: %w", err))
			}
			if slug != p.Candidate.Slug {
				logger.Info("candidate slug reassigned",
					"run_id", run.ID, "old", p.Candidate.Slug, "new", slug)
				p.Candidate.Slug = slug
			}
			buffer = append(buffer, p.Candidate)
			if len(buffer) >= i.commitSize {
				if err := i.flush(ctx, run, buffer); err != nil {
					return nil, i.failRun(ctx, run, nil, err)
				}
				buffer = buffer[:0]
			}

		case clinic.ActionSkip:
			run.Skipped++
			run.Success++
		}
	}
	if err := i.flush(ctx, run, buffer); err != nil {
		return nil, i.failRun(ctx, run, nil, err)
	}

	run.Pending = nil
	failures, err := i.failures.GetFailures(ctx, run.ID)
	if err != nil {
		failures = nil
	}
	return i.finish(ctx, run, failures)
}

// flush batch-writes the buffered clinics and rolls the counters.
func (i *Importer) flush(ctx context.Context, run *clinic.ImportRun, buffer []*clinic.Clinic) error {
	if len(buffer) == 0 {
		return nil
	}
	if err := i.store.BatchPut(ctx, buffer); err != nil {
		return fmt.Errorf("committing batch of %d: %w", len(buffer), err)
	}
	run.Created += len(buffer)
	run.Success += len(buffer)
	logger.Info("batch committed", "run_id", run.ID, "count", len(buffer), "created", run.Created)
	return nil
}

func (i *Importer) finish(ctx context.Context, run *clinic.ImportRun, failures []clinic.ImportFailure) (*clinic.ImportSummary, error) {
	finished := i.now().UTC()
	run.Status = clinic.RunComplete
	run.FinishedAt = &finished
	if err := i.saveRun(ctx, run); err != nil {
		return nil, err
	}
	logger.Info("import run complete",
		"run_id", run.ID, "total", run.Total, "success", run.Success, "failed", run.Failed,
		"created", run.Created, "merged", run.Merged, "skipped", run.Skipped)
	i.notifier.RunFinished(ctx, run)
	summary := run.Summary(failures)
	return &summary, nil
}

// failRun marks the run failed, persists what it can, and returns the
// original error for the caller.
func (i *Importer) failRun(ctx context.Context, run *clinic.ImportRun, failures []clinic.ImportFailure, cause error) error {
	run.Status = clinic.RunFailed
	run.Error = cause.Error()
	i.persistFailures(ctx, run, failures)
	if err := i.saveRun(ctx, run); err != nil {
		logger.Error("saving failed run", "run_id", run.ID, "error", err.Error())
	}
	logger.Error("import run failed", "run_id", run.ID, "error", cause.Error())
	return cause
}

func (i *Importer) persistFailures(ctx context.Context, run *clinic.ImportRun, failures []clinic.ImportFailure) {
	key, err := i.failures.SaveFailures(ctx, run.ID, failures)
	if err != nil {
		logger.Warn("writing failure log", "run_id", run.ID, "error", err.Error())
		return
	}
	run.FailureLogKey = key
}

func (i *Importer) saveRun(ctx context.Context, run *clinic.ImportRun) error {
	run.UpdatedAt = i.now().UTC()
	if err := i.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}
