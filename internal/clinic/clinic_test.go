package clinic

import (
	"testing"
	"time"
)

func TestAddTagDimensionExclusivity(t *testing.T) {
	c := &Clinic{}

	c.AddTag(IssueWebsiteDown)
	c.AddTag(IssueWebsiteOK)
	if c.HasTag(string(IssueWebsiteDown)) {
		t.Error("website-down should be cleared by website-ok")
	}
	if !c.HasTag(string(IssueWebsiteOK)) {
		t.Error("website-ok missing")
	}

	c.AddTag(IssueMissingAddress)
	c.AddTag(IssueGeoMismatch)
	if c.HasTag(string(IssueMissingAddress)) {
		t.Error("missing-address should be cleared by geo-mismatch")
	}
	if !c.HasTag(string(IssueGeoMismatch)) {
		t.Error("geo-mismatch missing")
	}
}

func TestAddTagIdempotent(t *testing.T) {
	c := &Clinic{}
	c.AddTag(IssueIncompleteData)
	c.AddTag(IssueIncompleteData)
	if len(c.Tags) != 1 {
		t.Errorf("duplicate adds produced %v", c.Tags)
	}
}

func TestAddTagKeepsUnrelatedDimensions(t *testing.T) {
	c := &Clinic{}
	c.AddTag(IssueGeoMismatch)
	c.AddTag(IssueWebsiteDown)
	c.AddTag(IssueIncompleteData)
	if len(c.Tags) != 3 {
		t.Errorf("unrelated tags clobbered: %v", c.Tags)
	}
}

func TestMergeFillsGapsOnly(t *testing.T) {
	lat, lng := 30.2672, -97.7431
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	existing := &Clinic{
		ID:       "existing-id",
		Name:     "Austin Mens Health",
		Phone:    "(512) 555-0000",
		Services: []string{"TRT"},
	}
	incoming := &Clinic{
		Phone:    "(512) 555-9999",
		Website:  "https://amh.example.com/",
		Lat:      &lat,
		Lng:      &lng,
		Services: []string{"TRT", "ED Treatment"},
		Tags:     []string{string(IssueWebsiteOK)},
	}

	if !Merge(existing, incoming, now) {
		t.Fatal("expected a change")
	}

	if existing.Phone != "(512) 555-0000" {
		t.Errorf("populated phone overwritten: %q", existing.Phone)
	}
	if existing.Website != "https://amh.example.com/" {
		t.Errorf("empty website not filled: %q", existing.Website)
	}
	if existing.Lat == nil || *existing.Lat != lat {
		t.Error("coordinates not filled")
	}
	if len(existing.Services) != 2 {
		t.Errorf("services not unioned: %v", existing.Services)
	}
	if !existing.HasTag(string(IssueWebsiteOK)) {
		t.Error("tag not carried over")
	}
	if !existing.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v", existing.UpdatedAt)
	}
}

func TestMergeNoChange(t *testing.T) {
	existing := &Clinic{Name: "Clinic", Phone: "(512) 555-0000"}
	incoming := &Clinic{Phone: "(512) 555-0000"}
	if Merge(existing, incoming, time.Now()) {
		t.Error("no-op merge reported a change")
	}
	if !existing.UpdatedAt.IsZero() {
		t.Error("UpdatedAt touched on no-op merge")
	}
}

func TestRunSummaryPartition(t *testing.T) {
	run := &ImportRun{
		ID: "run-1", Total: 10, Success: 7, Failed: 2,
		Created: 5, Merged: 1, Skipped: 1,
		Pending: []DuplicateCandidate{{Candidate: &Clinic{Slug: "x"}}},
	}
	s := run.Summary(nil)
	if s.Success+s.Failed+s.Pending != s.Total {
		t.Errorf("partition broken: %d + %d + %d != %d", s.Success, s.Failed, s.Pending, s.Total)
	}
}
