package report

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gravyjobs/gravyjobs/models"
)

func reportJob(title, url string, score int) *models.Job {
	return &models.Job{
		Title:      title,
		Company:    "Acme",
		URL:        url,
		Source:     "freelancer",
		PostedAt:   time.Now().Add(-2 * time.Hour),
		GravyScore: score,
	}
}

func TestRenderOneCardPerJob(t *testing.T) {
	jobs := []*models.Job{
		reportJob("Amazing gig", "https://example.com/1", 80),
		reportJob("Great gig", "https://example.com/2", 55),
		reportJob("Meh gig", "https://example.com/3", -10),
	}

	html, err := Render(jobs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	page := string(html)
	if got := strings.Count(page, `<div class="card">`); got != len(jobs) {
		t.Errorf("rendered %d cards, want %d", got, len(jobs))
	}
	for _, job := range jobs {
		if !strings.Contains(page, job.Title) {
			t.Errorf("missing job title %q", job.Title)
		}
		if !strings.Contains(page, job.URL) {
			t.Errorf("missing job link %q", job.URL)
		}
	}
	if !strings.Contains(page, "Amazing Opportunities") {
		t.Error("missing amazing section heading")
	}
	if !strings.Contains(page, "Everything Else") {
		t.Error("missing catch-all section heading")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	jobs := []*models.Job{
		reportJob("<script>alert(1)</script>", "https://example.com/xss", 50),
	}

	html, err := Render(jobs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(html), "<script>alert(1)</script>") {
		t.Error("job title not escaped")
	}
}

func TestRenderOrdersSectionsByScore(t *testing.T) {
	jobs := []*models.Job{
		reportJob("Low", "https://example.com/low", 35),
		reportJob("High", "https://example.com/high", 45),
	}

	html, err := Render(jobs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(html)
	if strings.Index(page, "High") > strings.Index(page, "Low") {
		t.Error("higher scored job should render first within its section")
	}
}

func TestServerServesReport(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	s := NewServer("127.0.0.1:0", nil, logger)

	if err := s.Update([]*models.Job{reportJob("Served gig", "https://example.com/served", 60)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Served gig") {
		t.Error("response missing updated job")
	}

	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown path = %d, want 404", rec.Code)
	}
}

func TestServerShutsDownOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	s := NewServer("127.0.0.1:0", nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
