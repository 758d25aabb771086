package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dbankston2409/mens-health-finder/internal/pkg/httpretry"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com"

// GoogleProvider is the primary, API-key-gated geocoding provider.
type GoogleProvider struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewGoogleProvider returns nil when no API key is configured, which
// lets the caller hand the result straight to NewChain.
func NewGoogleProvider(apiKey, baseURL string, timeout time.Duration) *GoogleProvider {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: httpretry.New(&http.Client{
			Timeout: timeout,
		}, 2),
	}
}

func (g *GoogleProvider) Name() string { return "google" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves the query through the Google Geocoding API.
func (g *GoogleProvider) Geocode(ctx context.Context, q Query) (*Point, error) {
	params := url.Values{}
	params.Set("address", q.FreeText())
	params.Set("key", g.apiKey)

	fullURL := g.baseURL + "/maps/api/geocode/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode API status %d: %s", resp.StatusCode, string(body))
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return nil, nil // zero results is a miss, not an error
	}

	loc := parsed.Results[0].Geometry.Location
	return &Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
