// Package webcheck probes claimed clinic websites for liveness.
// Website values come from untrusted import files, so the verifier
// validates the scheme and refuses private address ranges before
// dispatching any request.
package webcheck

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second
	defaultMaxHops = 5
)

// Verifier issues lightweight existence probes against claimed
// website URLs. Any 2xx-3xx final status counts as up; everything
// else, including errors and timeouts, counts as down. Verify never
// returns an error to the caller.
type Verifier struct {
	client            *http.Client
	allowPrivateHosts bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimeout overrides the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.client.Timeout = d
		}
	}
}

// WithPrivateHosts permits loopback and private-range targets.
// Only tests and air-gapped deployments should enable this.
func WithPrivateHosts() Option {
	return func(v *Verifier) { v.allowPrivateHosts = true }
}

// New creates a Verifier with a 5s timeout and a 5-hop redirect cap.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		client: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= defaultMaxHops {
					return fmt.Errorf("stopped after %d redirects", defaultMaxHops)
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports whether the website answers. It tries HEAD first and
// falls back to GET when the server rejects HEAD outright.
func (v *Verifier) Verify(ctx context.Context, rawURL string) bool {
	target, err := v.sanitize(rawURL)
	if err != nil {
		logger.Debug("website probe rejected", "url", rawURL, "reason", err.Error())
		return false
	}

	status, err := v.probe(ctx, http.MethodHead, target)
	if err != nil {
		return false
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status, err = v.probe(ctx, http.MethodGet, target)
		if err != nil {
			return false
		}
	}
	return status >= 200 && status < 400
}

func (v *Verifier) probe(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "mens-health-finder-verifier/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// sanitize enforces an http/https scheme and, unless explicitly
// allowed, refuses hosts that resolve to loopback, private, or
// link-local ranges so the verifier cannot be used as an internal
// network probe.
func (v *Verifier) sanitize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("unparseable URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("missing host")
	}

	if !v.allowPrivateHosts {
		if err := checkPublicHost(u.Hostname()); err != nil {
			return "", err
		}
	}
	return u.String(), nil
}

func checkPublicHost(host string) error {
	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("host does not resolve")
	}
	for _, ip := range ips {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("host resolves to a non-public address")
		}
	}
	return nil
}
