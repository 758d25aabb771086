package clinic

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a clinic listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// Tier is the listing package level. New imports always start on the
// lowest paid tier; upgrades happen through later admin actions.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierPlus     Tier = "plus"
	TierPlatinum Tier = "platinum"
)

// RawRecord is one untyped input row, keyed by canonical field name
// after column mapping. Any field may be missing, blank, or malformed.
type RawRecord struct {
	Fields map[string]string `json:"fields"`
	Row    int               `json:"row"` // 1-based position in the source file
}

// Get returns the trimmed value for a canonical field, or "".
func (r RawRecord) Get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// ValidationStatus tracks verification state on a clinic record.
type ValidationStatus struct {
	Verified  bool `json:"verified" dynamodbav:"Verified"`
	WebsiteOK bool `json:"websiteOK" dynamodbav:"WebsiteOK"`
}

// TrafficMeta holds view/click counters owned by the traffic subsystem.
// The import pipeline initializes it and never mutates it afterwards.
type TrafficMeta struct {
	Views  int64 `json:"views" dynamodbav:"Views"`
	Clicks int64 `json:"clicks" dynamodbav:"Clicks"`
	Calls  int64 `json:"calls" dynamodbav:"Calls"`
}

// Clinic is the canonical, normalized listing record.
type Clinic struct {
	ID   string `json:"id" dynamodbav:"ID"`
	Slug string `json:"slug" dynamodbav:"Slug"`
	Name string `json:"name" dynamodbav:"Name"`

	Address string   `json:"address" dynamodbav:"Address"`
	City    string   `json:"city" dynamodbav:"City"`
	State   string   `json:"state" dynamodbav:"State"`
	Zip     string   `json:"zip" dynamodbav:"Zip"`
	Country string   `json:"country" dynamodbav:"Country"`
	Lat     *float64 `json:"lat,omitempty" dynamodbav:"Lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty" dynamodbav:"Lng,omitempty"`

	Phone   string `json:"phone" dynamodbav:"Phone"`
	Website string `json:"website" dynamodbav:"Website"`
	Email   string `json:"email" dynamodbav:"Email"`

	Services []string `json:"services" dynamodbav:"Services"`
	Tier     Tier     `json:"tier" dynamodbav:"Tier"`
	Status   Status   `json:"status" dynamodbav:"Status"`

	Tags         []string         `json:"tags" dynamodbav:"Tags"`
	ImportSource string           `json:"importSource" dynamodbav:"ImportSource"`
	Validation   ValidationStatus `json:"validationStatus" dynamodbav:"Validation"`
	TrafficMeta  TrafficMeta      `json:"trafficMeta" dynamodbav:"TrafficMeta"`

	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `json:"lastUpdated" dynamodbav:"UpdatedAt"`
}

// HasTag reports whether the clinic carries the given quality tag.
func (c *Clinic) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ImportFailure pairs a rejected raw record with a human-readable reason.
type ImportFailure struct {
	Record RawRecord `json:"record"`
	Error  string    `json:"error"`
}

// ImportResult is the per-record outcome of the processor: either a
// clinic or an error reason, never both.
type ImportResult struct {
	Success bool
	Clinic  *Clinic
	Error   string
}

// ImportSummary aggregates one import run. Success and Failed always
// partition Total; no record is double-counted or dropped silently.
type ImportSummary struct {
	RunID    string          `json:"runId"`
	Total    int             `json:"total"`
	Success  int             `json:"success"`
	Failed   int             `json:"failed"`
	Created  int             `json:"created"`
	Merged   int             `json:"merged"`
	Skipped  int             `json:"skipped"`
	Pending  int             `json:"pending"` // duplicates awaiting a decision
	Failures []ImportFailure `json:"failures"`
}
