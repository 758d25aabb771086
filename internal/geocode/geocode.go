// Package geocode resolves free-text clinic addresses to coordinates
// through interchangeable providers with fallback ordering.
package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
)

// Point is a resolved coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Query is the address to resolve.
type Query struct {
	Address string
	City    string
	State   string
	Zip     string
}

// FreeText joins the query parts into a single lookup string.
func (q Query) FreeText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Address, q.City, q.State, q.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Provider resolves a query to a point. A miss (no results) returns
// (nil, nil); errors are reserved for transport-level problems.
type Provider interface {
	Geocode(ctx context.Context, q Query) (*Point, error)
	Name() string
}

// Chain tries providers in order and degrades every failure to nil.
// Callers must treat nil as "no coordinates", never as fatal.
type Chain struct {
	providers []Provider
}

// NewChain builds a fallback chain. Nil providers are skipped so the
// caller can pass an unconfigured primary directly.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Geocode returns the first provider hit, or nil when every provider
// misses or fails. It never returns an error.
func (c *Chain) Geocode(ctx context.Context, q Query) *Point {
	for _, p := range c.providers {
		pt, err := p.Geocode(ctx, q)
		if err != nil {
			logger.Warn("geocode provider failed", "provider", p.Name(), "error", fmt.Sprintf("%v", err))
			continue
		}
		if pt != nil {
			return pt
		}
	}
	return nil
}
