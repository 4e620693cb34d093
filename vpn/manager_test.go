package vpn

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
)

func newTestManager(t *testing.T, transport http.RoundTripper) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(Options{
		ConfigPath: filepath.Join(dir, "vpn_config.json"),
		CacheDir:   filepath.Join(dir, "cache"),
		Logger:     slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
		Transport:  transport,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	cfg := m.Config()
	cfg.Rotation.DelayMinSec = 0
	cfg.Rotation.DelayMaxSec = 0
	cfg.Rotation.RetryDelayMinSec = 0
	cfg.Rotation.RetryDelayMaxSec = 0
	cfg.Rotation.MaxRetries = 2
	return m
}

func TestFetchReturnsBodyAndCaches(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.freelancer.com/jobs",
		httpmock.NewStringResponder(200, "<html>listings</html>"))

	m := newTestManager(t, transport)

	body, err := m.Fetch(context.Background(), "https://www.freelancer.com/jobs", nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "<html>listings</html>" {
		t.Fatalf("unexpected body %q", body)
	}

	// Second fetch must come from cache without touching the network.
	transport.Reset()
	body, err = m.Fetch(context.Background(), "https://www.freelancer.com/jobs", nil)
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if string(body) != "<html>listings</html>" {
		t.Fatalf("unexpected cached body %q", body)
	}
}

func TestFetchRotatesIdentityOnBlock(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.freelancer.com/blocked",
		httpmock.NewStringResponder(403, "forbidden"))

	m := newTestManager(t, transport)
	cfg := m.Config()
	startFP := cfg.Fingerprints.CurrentIndex
	startProxy := cfg.CurrentProxyIndex

	_, err := m.Fetch(context.Background(), "https://www.freelancer.com/blocked", nil)
	if err == nil {
		t.Fatal("expected error for blocked URL")
	}
	var exhausted ErrExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrExhausted, got %T: %v", err, err)
	}
	if ErrorLabel(exhausted.Last) != "blocked" {
		t.Fatalf("expected blocked last error, got %q", ErrorLabel(exhausted.Last))
	}

	if cfg.Fingerprints.CurrentIndex == startFP {
		t.Error("fingerprint did not rotate after block")
	}
	if cfg.CurrentProxyIndex == startProxy {
		t.Error("proxy did not rotate after block")
	}
}

func TestFetchDetectsCaptchaBody(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.indeed.com/jobs",
		httpmock.NewStringResponder(200, "please solve this captcha to continue"))

	m := newTestManager(t, transport)

	_, err := m.Fetch(context.Background(), "https://www.indeed.com/jobs", nil)
	if err == nil {
		t.Fatal("expected error for captcha body")
	}
	var exhausted ErrExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrExhausted, got %T: %v", err, err)
	}
	var blockedErr ErrBlocked
	if !errors.As(exhausted.Last, &blockedErr) {
		t.Fatalf("expected ErrBlocked inside, got %v", exhausted.Last)
	}
}

func TestFetchFallsBackToStaleCache(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.freelancer.com/stale",
		httpmock.NewStringResponder(503, "unavailable"))

	m := newTestManager(t, transport)
	m.cache.Put("https://www.freelancer.com/stale", []byte("old listings"))
	m.cache.ttl = 0 // force freshness misses so the stale path runs
	m.cache.mem.Purge()

	body, err := m.Fetch(context.Background(), "https://www.freelancer.com/stale", nil)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if string(body) != "old listings" {
		t.Fatalf("unexpected stale body %q", body)
	}
}

func TestFetchDecodesGzipBodies(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("compressed listings"))
	gz.Close()

	resp := httpmock.NewBytesResponse(200, buf.Bytes())
	resp.Header.Set("Content-Encoding", "gzip")

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.freelancer.com/gz",
		httpmock.ResponderFromResponse(resp))

	m := newTestManager(t, transport)

	body, err := m.Fetch(context.Background(), "https://www.freelancer.com/gz", nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "compressed listings" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.freelancer.com/slow",
		httpmock.NewStringResponder(200, "ok"))

	m := newTestManager(t, transport)
	m.Config().Rotation.DelayMinSec = 5
	m.Config().Rotation.DelayMaxSec = 5

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Fetch(ctx, "https://www.freelancer.com/slow", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionRotationAfterBudget(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `=~^https://www\.freelancer\.com/p`,
		httpmock.NewStringResponder(200, "page"))

	m := newTestManager(t, transport)
	cfg := m.Config()
	cfg.Sites["freelancer.com"] = SiteRules{MaxRequestsPerSession: 2}
	startFP := cfg.Fingerprints.CurrentIndex

	for i := 0; i < 3; i++ {
		url := "https://www.freelancer.com/p" + string(rune('a'+i))
		if _, err := m.Fetch(context.Background(), url, nil); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if cfg.Fingerprints.CurrentIndex == startFP {
		t.Error("identity did not rotate after session budget spent")
	}
	if cfg.SiteRequestCounts["freelancer.com"] >= 2 {
		t.Errorf("request count not reset, got %d", cfg.SiteRequestCounts["freelancer.com"])
	}
}

func TestDomainExtraction(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.indeed.com/jobs?q=go", "indeed.com"},
		{"https://remoteok.com/api", "remoteok.com"},
		{"https://minneapolis.craigslist.org/search/web", "craigslist.org"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := Domain(tt.url); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
