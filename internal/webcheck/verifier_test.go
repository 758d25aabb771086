package webcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testVerifier() *Verifier {
	// httptest servers bind loopback, which the default verifier
	// refuses on purpose.
	return New(WithPrivateHosts(), WithTimeout(2*time.Second))
}

func TestVerifyUpStatuses(t *testing.T) {
	for _, status := range []int{200, 204} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		up := testVerifier().Verify(context.Background(), server.URL)
		server.Close()
		if !up {
			t.Errorf("status %d should count as up", status)
		}
	}
}

func TestVerifyFollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if !testVerifier().Verify(context.Background(), server.URL) {
		t.Error("redirect to a live page should count as up")
	}
}

func TestVerifyDownStatuses(t *testing.T) {
	for _, status := range []int{404, 410, 500, 503} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		up := testVerifier().Verify(context.Background(), server.URL)
		server.Close()
		if up {
			t.Errorf("status %d should count as down", status)
		}
	}
}

func TestVerifyHeadFallsBackToGet(t *testing.T) {
	var sawGet bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if !testVerifier().Verify(context.Background(), server.URL) {
		t.Error("GET fallback should report up")
	}
	if !sawGet {
		t.Error("verifier never issued the GET fallback")
	}
}

func TestVerifyRedirectCap(t *testing.T) {
	var server *httptest.Server
	hop := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hop++
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", server.URL, hop), http.StatusFound)
	}))
	defer server.Close()

	if testVerifier().Verify(context.Background(), server.URL) {
		t.Error("endless redirect chain should count as down")
	}
}

func TestVerifyConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	if testVerifier().Verify(context.Background(), server.URL) {
		t.Error("dead server should count as down")
	}
}

func TestVerifyRejectsBadSchemes(t *testing.T) {
	v := testVerifier()
	for _, raw := range []string{
		"ftp://example.com/",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"not a url",
		"",
	} {
		if v.Verify(context.Background(), raw) {
			t.Errorf("%q should be rejected", raw)
		}
	}
}

func TestVerifyRefusesPrivateHostsByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached a private host")
	}))
	defer server.Close()

	if New().Verify(context.Background(), server.URL) {
		t.Error("loopback target should be refused without WithPrivateHosts")
	}
}
