package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
)

// MemoryStore is an in-memory Store and FailureLog for tests and
// local development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	clinics  map[string]*clinic.Clinic
	slugs    map[string]string // slug -> clinic ID
	runs     map[string]*clinic.ImportRun
	failures map[string][]clinic.ImportFailure
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clinics:  make(map[string]*clinic.Clinic),
		slugs:    make(map[string]string),
		runs:     make(map[string]*clinic.ImportRun),
		failures: make(map[string][]clinic.ImportFailure),
	}
}

func (m *MemoryStore) GetClinic(_ context.Context, id string) (*clinic.Clinic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clinics[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) QueryClinics(_ context.Context, q ClinicQuery) ([]*clinic.Clinic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*clinic.Clinic
	for _, c := range m.clinics {
		if q.City != "" && !strings.EqualFold(c.City, q.City) {
			continue
		}
		if q.State != "" && !strings.EqualFold(c.State, q.State) {
			continue
		}
		cp := *c
		out = append(out, &cp)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.slugs[slug]
	return ok, nil
}

func (m *MemoryStore) BatchPut(_ context.Context, clinics []*clinic.Clinic) error {
	if len(clinics) > MaxBatchClinics {
		return fmt.Errorf("batch of %d clinics exceeds limit of %d", len(clinics), MaxBatchClinics)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range clinics {
		cp := *c
		m.clinics[c.ID] = &cp
		m.slugs[c.Slug] = c.ID
	}
	return nil
}

func (m *MemoryStore) UpdateClinic(_ context.Context, c *clinic.Clinic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clinics[c.ID]; !ok {
		return fmt.Errorf("clinic %s not found", c.ID)
	}
	cp := *c
	m.clinics[c.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveRun(_ context.Context, run *clinic.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (*clinic.ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (m *MemoryStore) ListRuns(_ context.Context) ([]clinic.ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]clinic.ImportRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].UpdatedAt.After(runs[j].UpdatedAt)
	})
	return runs, nil
}

func (m *MemoryStore) SaveFailures(_ context.Context, runID string, failures []clinic.ImportFailure) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]clinic.ImportFailure, len(failures))
	copy(cp, failures)
	m.failures[runID] = cp
	return fmt.Sprintf("imports/%s/failures.json", runID), nil
}

func (m *MemoryStore) GetFailures(_ context.Context, runID string) ([]clinic.ImportFailure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	failures, ok := m.failures[runID]
	if !ok {
		return nil, fmt.Errorf("no failure log for run %s", runID)
	}
	cp := make([]clinic.ImportFailure, len(failures))
	copy(cp, failures)
	return cp, nil
}

// ClinicCount reports how many clinics the store holds, used by tests.
func (m *MemoryStore) ClinicCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clinics)
}
