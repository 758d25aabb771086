// Package store persists clinic records, import runs, and failure
// logs. The production implementation is DynamoDB-backed with S3
// artifacts; an in-memory implementation backs tests and local runs.
package store

import (
	"context"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
)

const (
	// MaxBatchOps is the store's hard per-batch write ceiling
	// (DynamoDB BatchWriteItem accepts at most 25 requests).
	MaxBatchOps = 25

	// OpsPerClinic is the write cost of one clinic: the profile item
	// plus its slug marker.
	OpsPerClinic = 2

	// MaxBatchClinics is the most clinics a single BatchPut may carry.
	MaxBatchClinics = MaxBatchOps / OpsPerClinic

	// DefaultCommitSize is the importer's flush threshold, comfortably
	// under MaxBatchClinics.
	DefaultCommitSize = 10
)

// ClinicQuery selects duplicate-check candidates by location.
type ClinicQuery struct {
	City  string
	State string
	Limit int
}

// Store is the record-store collaborator: point lookups, predicate
// queries, bounded batch writes, and import-run persistence.
type Store interface {
	GetClinic(ctx context.Context, id string) (*clinic.Clinic, error)
	QueryClinics(ctx context.Context, q ClinicQuery) ([]*clinic.Clinic, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	// BatchPut writes up to MaxBatchClinics new clinics atomically
	// enough for our purposes: a failure leaves earlier batches
	// intact and is reported to the caller.
	BatchPut(ctx context.Context, clinics []*clinic.Clinic) error
	UpdateClinic(ctx context.Context, c *clinic.Clinic) error

	SaveRun(ctx context.Context, run *clinic.ImportRun) error
	GetRun(ctx context.Context, id string) (*clinic.ImportRun, error)
	ListRuns(ctx context.Context) ([]clinic.ImportRun, error)
}

// FailureLog persists the per-run failure artifact for operator review.
type FailureLog interface {
	SaveFailures(ctx context.Context, runID string, failures []clinic.ImportFailure) (string, error)
	GetFailures(ctx context.Context, runID string) ([]clinic.ImportFailure, error)
}
