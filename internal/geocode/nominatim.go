package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

	// Nominatim's usage policy allows at most one request per second.
	// The pause is a hard serialization point shared by every caller
	// of this provider, not best-effort throttling.
	minCallInterval = 1100 * time.Millisecond
)

// NominatimProvider is the free fallback provider. It requires no API
// key but enforces a mandatory minimum delay between calls.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

// NewNominatimProvider builds the fallback provider. An empty baseURL
// selects the public openstreetmap.org instance.
func NewNominatimProvider(baseURL string, timeout time.Duration) *NominatimProvider {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimProvider{
		baseURL:    baseURL,
		userAgent:  "mens-health-finder-importer/1.0",
		httpClient: &http.Client{Timeout: timeout},
		interval:   minCallInterval,
	}
}

func (n *NominatimProvider) Name() string { return "nominatim" }

// waitTurn blocks until the minimum inter-call interval has elapsed
// since the previous request, honoring context cancellation. The next
// dispatch slot is claimed under the lock before sleeping, so
// concurrent callers queue at interval spacing instead of all reading
// the same lastCall and firing together.
func (n *NominatimProvider) waitTurn(ctx context.Context) error {
	n.mu.Lock()
	slot := n.lastCall.Add(n.interval)
	if now := time.Now(); slot.Before(now) {
		slot = now
	}
	n.lastCall = slot
	n.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves the query through the Nominatim search API.
func (n *NominatimProvider) Geocode(ctx context.Context, q Query) (*Point, error) {
	if err := n.waitTurn(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.FreeText())
	params.Set("format", "json")
	params.Set("limit", "1")

	fullURL := n.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lat %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lon %q: %w", results[0].Lon, err)
	}

	return &Point{Lat: lat, Lng: lng}, nil
}
