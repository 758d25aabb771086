// Package slugger derives unique, human-readable slugs for clinic
// listings from their name, city, and state.
package slugger

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

// SlugChecker reports whether a slug already exists in the record store.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Make returns the deterministic base slug for a listing, or "" when
// any component is missing. Same inputs always yield the same slug.
func Make(name, city, state string) string {
	if name == "" || city == "" || state == "" {
		return ""
	}
	return slug.Make(fmt.Sprintf("%s %s %s", name, city, state))
}

// Uniquer enforces slug uniqueness against the store plus every slug
// already reserved in the current run. Reservation is what keeps two
// identical inputs in one batch from colliding before either is
// written, and what protects duplicate candidates whose commit is
// deferred until an operator decides.
type Uniquer struct {
	checker  SlugChecker
	reserved map[string]bool
}

// NewUniquer creates a Uniquer for a single import run.
func NewUniquer(checker SlugChecker) *Uniquer {
	return &Uniquer{
		checker:  checker,
		reserved: make(map[string]bool),
	}
}

// Ensure returns base unchanged if free, else the first free candidate
// among base-1, base-2, ... The winning slug is reserved for the rest
// of the run.
func (u *Uniquer) Ensure(ctx context.Context, base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty base slug")
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := u.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			u.reserved[candidate] = true
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Release frees an in-run reservation, used when a duplicate candidate
// is merged or skipped and its slug will never be written.
func (u *Uniquer) Release(slug string) {
	delete(u.reserved, slug)
}

func (u *Uniquer) taken(ctx context.Context, candidate string) (bool, error) {
	if u.reserved[candidate] {
		return true, nil
	}
	exists, err := u.checker.SlugExists(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("slug lookup %q: %w", candidate, err)
	}
	return exists, nil
}
