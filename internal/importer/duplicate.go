package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/store"
)

// DefaultDuplicateThreshold is the name similarity above which two
// clinics in the same city and state are flagged for operator review.
const DefaultDuplicateThreshold = 0.85

// candidateQueryLimit bounds the per-record duplicate scan. Duplicate
// checks compare within one city/state, which in practice holds tens
// of clinics, not thousands.
const candidateQueryLimit = 200

// match describes why an incoming clinic was flagged as a duplicate of
// an existing one.
type match struct {
	existing *clinic.Clinic
	reason   string
	score    float64
}

// duplicateDetector flags incoming clinics that look like records we
// already have: an exact phone match, or a near-identical name in the
// same city and state.
type duplicateDetector struct {
	store     store.Store
	threshold float64
}

func newDuplicateDetector(s store.Store, threshold float64) *duplicateDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDuplicateThreshold
	}
	return &duplicateDetector{store: s, threshold: threshold}
}

// find returns the best duplicate match for c, or nil when c looks new.
// Store errors propagate; a duplicate scan that cannot read the store
// must abort the run rather than silently create duplicates.
func (d *duplicateDetector) find(ctx context.Context, c *clinic.Clinic) (*match, error) {
	existing, err := d.store.QueryClinics(ctx, store.ClinicQuery{
		City:  c.City,
		State: c.State,
		Limit: candidateQueryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying duplicate candidates: %w", err)
	}

	phone := digitsOnly(c.Phone)
	var best *match
	for _, e := range existing {
		if phone != "" && phone == digitsOnly(e.Phone) {
			return &match{existing: e, reason: "same phone number", score: 1}, nil
		}
		score := tokenSimilarity(c.Name, e.Name)
		if score >= d.threshold && (best == nil || score > best.score) {
			best = &match{
				existing: e,
				reason:   fmt.Sprintf("similar name in %s, %s", c.City, c.State),
				score:    score,
			}
		}
	}
	return best, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenSimilarity is the Jaccard similarity of the lowercase word sets
// of a and b. Word-set comparison survives reordered and repeated
// tokens ("Mens Health Austin" vs "Austin Men's Health") where plain
// string equality does not.
func tokenSimilarity(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	shared := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			shared++
		}
	}
	union := len(as) + len(bs) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		t = strings.Trim(t, ".,'\"()&-")
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
