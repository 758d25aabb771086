package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/geocode"
	"github.com/dbankston2409/mens-health-finder/internal/normalize"
	"github.com/dbankston2409/mens-health-finder/internal/slugger"
)

// Geocoder resolves an address to coordinates, returning nil on any
// miss or provider failure. The geocode.Chain satisfies this.
type Geocoder interface {
	Geocode(ctx context.Context, q geocode.Query) *geocode.Point
}

// WebsiteVerifier probes a website for liveness.
type WebsiteVerifier interface {
	Verify(ctx context.Context, url string) bool
}

// Processor turns one raw record into a canonical clinic. Only the
// required-field check is a hard failure; geocoding, website
// verification, and completeness checks degrade to quality tags.
// Partial data beats dropped records.
type Processor struct {
	geocoder Geocoder
	verifier WebsiteVerifier
	slugs    *slugger.Uniquer
	now      func() time.Time
}

// NewProcessor wires a processor for a single import run. The slug
// uniquer carries per-run reservations, so processors are not shared
// across runs.
func NewProcessor(g Geocoder, v WebsiteVerifier, slugs *slugger.Uniquer, now func() time.Time) *Processor {
	if now == nil {
		now = time.Now
	}
	return &Processor{geocoder: g, verifier: v, slugs: slugs, now: now}
}

// requiredForCompleteness is the field set whose absence after
// normalization earns the incomplete-data tag.
var requiredForCompleteness = []string{"name", "address", "city", "state", "zip", "phone"}

// Process runs the per-record state machine in strict order. The
// returned error is reserved for infrastructure failures (slug store
// lookups) that must abort the whole run; per-record problems land in
// the ImportResult.
func (p *Processor) Process(ctx context.Context, raw clinic.RawRecord, source string) (clinic.ImportResult, error) {
	// 1. Required fields, checked before any side-effecting work. A
	// record missing name/city/state triggers no slug reservation, no
	// geocode call, and no write.
	name := raw.Get("name")
	city := raw.Get("city")
	state := raw.Get("state")
	if name == "" || city == "" || state == "" {
		return clinic.ImportResult{
			Success: false,
			Error:   fmt.Sprintf("missing required fields (name=%q city=%q state=%q)", name, city, state),
		}, nil
	}

	// 2. Normalize.
	now := p.now().UTC()
	c := &clinic.Clinic{
		ID:           uuid.New().String(),
		Name:         normalize.Name(name),
		Address:      raw.Get("address"),
		City:         normalize.Name(city),
		State:        normalize.State(state),
		Zip:          normalize.Zip(raw.Get("zip")),
		Country:      normalize.State(raw.Get("country")),
		Phone:        normalize.Phone(raw.Get("phone")),
		Website:      normalize.Website(raw.Get("website")),
		Email:        normalize.Email(raw.Get("email")),
		Services:     normalize.Services(raw.Get("services")),
		Tier:         clinic.TierBasic,
		Status:       clinic.StatusActive,
		ImportSource: source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tier := raw.Get("tier"); tier != "" {
		c.Tier = clinic.Tier(strings.ToLower(tier))
	}

	// 3. Slug. Base generation cannot be empty once step 1 passed,
	// but the guard stays because a slug-less record must never reach
	// the store.
	base := slugger.Make(c.Name, c.City, c.State)
	if base == "" {
		return clinic.ImportResult{Success: false, Error: "could not derive slug"}, nil
	}
	slug, err := p.slugs.Ensure(ctx, base)
	if err != nil {
		return clinic.ImportResult{}, fmt.Errorf("reserving slug: %w", err)
	}
	c.Slug = slug

	// 4. Geocode — soft. Missing coordinates become a tag, never a
	// rejection.
	if c.Address == "" {
		c.AddTag(clinic.IssueMissingAddress)
	} else {
		pt := p.geocoder.Geocode(ctx, geocode.Query{
			Address: c.Address, City: c.City, State: c.State, Zip: c.Zip,
		})
		if pt != nil {
			c.Lat, c.Lng = &pt.Lat, &pt.Lng
		} else {
			c.AddTag(clinic.IssueGeoMismatch)
		}
	}

	// 5. Website liveness — soft.
	if c.Website == "" {
		c.AddTag(clinic.IssueMissingWebsite)
	} else if p.verifier.Verify(ctx, c.Website) {
		c.Validation.WebsiteOK = true
		c.AddTag(clinic.IssueWebsiteOK)
	} else {
		c.Validation.WebsiteOK = false
		c.AddTag(clinic.IssueWebsiteDown)
	}

	// 6. Completeness tagging.
	fields := map[string]string{
		"name": c.Name, "address": c.Address, "city": c.City,
		"state": c.State, "zip": c.Zip, "phone": c.Phone,
	}
	for _, f := range requiredForCompleteness {
		if fields[f] == "" {
			c.AddTag(clinic.IssueIncompleteData)
			break
		}
	}

	return clinic.ImportResult{Success: true, Clinic: c}, nil
}
