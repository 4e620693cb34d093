package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/notify"
	"github.com/gravyjobs/gravyjobs/scraper"
)

type fixedSource struct {
	name string
	jobs []*models.Job
}

func (s fixedSource) Name() string { return s.name }

func (s fixedSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	return s.jobs, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cycleConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ExcludeKeywords = nil
	cfg.OutputFormat = format
	cfg.OutputFile = filepath.Join(dir, "jobs."+format)
	cfg.DataFile = filepath.Join(dir, "all_jobs.json")
	cfg.TopJobsFile = filepath.Join(dir, "top_jobs.json")
	return cfg
}

func TestRunCycleWritesJSONOutput(t *testing.T) {
	t.Setenv("GRAVY_SMTP_HOST", "")
	cfg := cycleConfig(t, "json")

	src := fixedSource{name: "freelancer", jobs: []*models.Job{
		{Title: "Simple WordPress fixes", URL: "https://example.com/1"},
		{Title: "HTML tweaks, remote", URL: "https://example.com/2"},
	}}
	s := scraper.New(cfg, nil, scraper.WithLogger(quietLogger()), scraper.WithSources(src))

	err := runCycle(context.Background(), cfg, s, nil, notify.NewMailer(quietLogger()), &cycleProgress{})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	var jobs []*models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("output holds %d jobs, want 2", len(jobs))
	}

	for _, path := range []string{cfg.DataFile, cfg.TopJobsFile} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to be written: %v", path, err)
		}
	}
}

func TestCreateWriterDualWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "jobs.out")

	w, err := createWriter("dual", out)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	job := &models.Job{Title: "Junior developer", URL: "https://example.com/1", Source: "indeed"}
	if err := w.Write([]*models.Job{job}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "jobs.csv"), filepath.Join(dir, "jobs.json")} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", path)
		}
	}
}

func TestCreateWriterRejectsUnknownFormat(t *testing.T) {
	if _, err := createWriter("xml", "jobs.xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
