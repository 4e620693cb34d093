package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/vpn"
	"github.com/jarcoal/httpmock"
)

type stubSource struct {
	name string
	jobs []*models.Job
	err  error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	return s.jobs, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

// htmlResponder serves a fixture with an HTML content type, which the
// colly collectors require before firing their element callbacks.
func htmlResponder(status int, body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

func testVPNManager(t *testing.T, transport http.RoundTripper) *vpn.Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := vpn.NewManager(vpn.Options{
		ConfigPath: filepath.Join(dir, "vpn_config.json"),
		CacheDir:   filepath.Join(dir, "cache"),
		Logger:     testLogger(),
		Transport:  transport,
	})
	if err != nil {
		t.Fatalf("new vpn manager: %v", err)
	}
	cfg := m.Config()
	cfg.Rotation.DelayMinSec = 0
	cfg.Rotation.DelayMaxSec = 0
	cfg.Rotation.RetryDelayMinSec = 0
	cfg.Rotation.RetryDelayMaxSec = 0
	cfg.Rotation.MaxRetries = 1
	for site, rules := range cfg.Sites {
		rules.ExtraDelaySec = 0
		cfg.Sites[site] = rules
	}
	return m
}

func TestFirstGeoLocation(t *testing.T) {
	if got := firstGeoLocation([]string{"remote", "anywhere"}, "United States"); got != "United States" {
		t.Errorf("remote-only locations should fall back, got %q", got)
	}
	if got := firstGeoLocation([]string{"remote", "Austin"}, "Remote"); got != "Austin" {
		t.Errorf("expected first geography, got %q", got)
	}
	if got := firstGeoLocation(nil, "Remote"); got != "Remote" {
		t.Errorf("empty locations should fall back, got %q", got)
	}
}

func TestScrapeAllIsolatesFailingSources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExcludeKeywords = nil

	good := stubSource{name: "freelancer", jobs: []*models.Job{
		{Title: "Simple HTML fixes", URL: "https://example.com/1"},
		{Title: "WordPress tweaks", URL: "https://example.com/2"},
	}}
	bad := stubSource{name: "indeed", err: vpn.ErrBlocked{Err: errors.New("bot wall")}}

	s := New(cfg, nil, WithLogger(testLogger()), WithSources(good, bad))

	result, err := s.ScrapeAll(context.Background())
	if err != nil {
		t.Fatalf("scrape all: %v", err)
	}
	if result.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", result.TotalCount)
	}
	if result.BySource["freelancer"] != 2 {
		t.Errorf("freelancer count = %d, want 2", result.BySource["freelancer"])
	}
	if result.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", result.ErrorCount)
	}
	if result.ErrorsByType["blocked"] != 1 {
		t.Errorf("ErrorsByType = %v, want one blocked", result.ErrorsByType)
	}
	if len(result.FailedSources) != 1 || result.FailedSources[0] != "indeed" {
		t.Errorf("FailedSources = %v, want [indeed]", result.FailedSources)
	}
	for _, job := range result.Jobs {
		if job.Source != "freelancer" {
			t.Errorf("job source = %q, want freelancer", job.Source)
		}
	}
}

func TestScrapeAllCapsPerSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExcludeKeywords = nil
	cfg.MaxJobsPerSource = 3

	var jobs []*models.Job
	for i := 0; i < 10; i++ {
		jobs = append(jobs, &models.Job{
			Title: "Basic data entry",
			URL:   "https://example.com/" + string(rune('a'+i)),
		})
	}
	s := New(cfg, nil, WithLogger(testLogger()), WithSources(stubSource{name: "remoteok", jobs: jobs}))

	result, err := s.ScrapeAll(context.Background())
	if err != nil {
		t.Fatalf("scrape all: %v", err)
	}
	if result.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", result.TotalCount)
	}
}

func TestScrapeAllDropsExcludedAndInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExcludeKeywords = []string{"senior"}

	src := stubSource{name: "freelancer", jobs: []*models.Job{
		{Title: "Senior architect needed", URL: "https://example.com/sr"},
		{Title: "", URL: "https://example.com/untitled"},
		{Title: "Basic website updates", URL: "https://example.com/ok"},
	}}
	s := New(cfg, nil, WithLogger(testLogger()), WithSources(src))

	result, err := s.ScrapeAll(context.Background())
	if err != nil {
		t.Fatalf("scrape all: %v", err)
	}
	if result.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", result.TotalCount)
	}
	if result.Jobs[0].URL != "https://example.com/ok" {
		t.Errorf("kept wrong job %q", result.Jobs[0].URL)
	}
}

func TestCleanExtractsSalaryFromDescription(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExcludeKeywords = nil
	s := New(cfg, nil, WithLogger(testLogger()), WithSources())

	jobs := s.clean("freelancer", []*models.Job{
		{Title: "CSS cleanup", URL: "https://example.com/1", Description: "Pays $25 per hour, flexible"},
	})
	if len(jobs) != 1 {
		t.Fatalf("kept %d jobs, want 1", len(jobs))
	}
	if jobs[0].Salary == "" {
		t.Error("salary not extracted from description")
	}
}

func TestNewBuildsConfiguredSources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources = []string{"freelancer", "remoteok", "bogus"}

	s := New(cfg, testVPNManager(t, nil), WithLogger(testLogger()))
	if len(s.sources) != 2 {
		t.Fatalf("built %d sources, want 2", len(s.sources))
	}
	if s.sources[0].Name() != "freelancer" || s.sources[1].Name() != "remoteok" {
		t.Errorf("unexpected sources %q, %q", s.sources[0].Name(), s.sources[1].Name())
	}
}
