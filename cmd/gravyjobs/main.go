package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/gravy"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/notify"
	"github.com/gravyjobs/gravyjobs/pipeline"
	"github.com/gravyjobs/gravyjobs/report"
	"github.com/gravyjobs/gravyjobs/scraper"
	"github.com/gravyjobs/gravyjobs/vpn"
	"github.com/pterm/pterm"
)

func main() {
	defaultCfg := config.DefaultConfig()
	workersDefault := defaultCfg.Workers
	if value, ok, err := config.EnvInt("GRAVY_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GRAVY_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}
	maxJobsDefault := defaultCfg.MaxJobsPerSource
	if value, ok, err := config.EnvInt("GRAVY_MAX_JOBS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GRAVY_MAX_JOBS: %v\n", err)
		os.Exit(1)
	} else if ok {
		maxJobsDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("GRAVY_OUTPUT"); ok {
		outputDefault = value
	}
	dataDefault := defaultCfg.DataFile
	if value, ok := config.EnvString("GRAVY_DATA_FILE"); ok {
		dataDefault = value
	}

	query := flag.String("query", "", "Free-form search query, e.g. \"remote wordpress jobs in austin\"")
	sources := flag.String("sources", strings.Join(defaultCfg.Sources, ","), "Comma-separated job boards to scrape")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: html, json, csv, or dual (csv+json)")
	dataFile := flag.String("data-file", dataDefault, "Job history file")
	maxJobs := flag.Int("max-jobs", maxJobsDefault, "Maximum jobs kept per source")
	topLimit := flag.Int("top", defaultCfg.TopLimit, "How many ranked jobs to keep")
	workers := flag.Int("workers", workersDefault, "Number of sources scraped in parallel")
	serve := flag.Bool("serve", false, "Serve the report over HTTP after scraping")
	port := flag.Int("port", 8398, "Report server port (localhost only)")
	once := flag.Bool("once", false, "Scrape once and exit instead of running on an interval")
	interval := flag.Duration("interval", defaultCfg.Interval, "Delay between scrape cycles")
	vpnConfig := flag.String("vpn-config", defaultCfg.VPNConfigFile, "Proxy rotation config file")
	cacheDir := flag.String("cache-dir", defaultCfg.CacheDir, "Response cache directory")
	noBanner := flag.Bool("no-banner", false, "Suppress the startup banner")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.Sources = splitList(*sources)
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.DataFile = *dataFile
	cfg.MaxJobsPerSource = *maxJobs
	cfg.TopLimit = *topLimit
	cfg.Workers = *workers
	cfg.Interval = *interval
	cfg.VPNConfigFile = *vpnConfig
	cfg.CacheDir = *cacheDir
	cfg.Verbose = *verbose

	if *query != "" {
		params := config.ExpandQuery(*query)
		params.Apply(cfg)
		slog.Info("expanded query",
			"keywords", strings.Join(params.Keywords, ","),
			"locations", strings.Join(params.Locations, ","))
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	printBanner(*noBanner || !isTerminal(os.Stdout))

	manager, err := vpn.NewManager(vpn.Options{
		ConfigPath: cfg.VPNConfigFile,
		CacheDir:   cfg.CacheDir,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("initialising request manager", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing in-flight work")
	}()

	progress := &cycleProgress{}
	var server *report.Server
	s := scraper.New(cfg, manager,
		scraper.WithLogger(logger),
		scraper.WithSourceHook(func(string, int, error) { progress.increment() }))
	if *serve {
		addr := fmt.Sprintf("127.0.0.1:%d", *port)
		server = report.NewServer(addr, s.Metrics.Registry, logger)
		go func() {
			if err := server.Run(ctx); err != nil {
				slog.Error("report server failed", slog.Any("error", err))
			}
		}()
	}

	mailer := notify.NewMailer(logger)

	for {
		if err := runCycle(ctx, cfg, s, server, mailer, progress); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("scrape cycle failed", slog.Any("error", err))
		}
		if *once {
			return
		}

		slog.Info("sleeping until next cycle", "interval", cfg.Interval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Interval):
		}
	}
}

// runCycle performs one scrape: collect, score, merge history, rank, and
// emit every configured output.
func runCycle(ctx context.Context, cfg *config.Config, s *scraper.Scraper, server *report.Server, mailer *notify.Mailer, progress *cycleProgress) error {
	start := time.Now()

	if isTerminal(os.Stdout) {
		progress.start(len(cfg.Sources))
	}
	result, err := s.ScrapeAll(ctx)
	progress.finish()
	if err != nil {
		return err
	}

	history, err := pipeline.LoadHistory(cfg.DataFile)
	if err != nil {
		return err
	}

	var newJobs []*models.Job
	for _, job := range result.Jobs {
		if history.IsNew(job.URL) {
			newJobs = append(newJobs, job)
		}
	}
	result.NewCount = len(newJobs)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline(writer)
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}
	if err := p.Process(result.Jobs); err != nil {
		return err
	}
	if err := p.Close(); err != nil {
		return err
	}
	// JSON output is only written on writer close, so close before validating.
	if err := writer.Close(); err != nil {
		return err
	}
	if len(result.Jobs) > 0 {
		if err := writer.Validate(); err != nil {
			return fmt.Errorf("output validation failed: %w", err)
		}
	}

	history.Merge(result.Jobs)
	if err := history.Save(); err != nil {
		return err
	}

	top := gravy.RankTop(history.Jobs(), cfg.TopLimit)
	if err := pipeline.SaveTop(cfg.TopJobsFile, top); err != nil {
		return err
	}
	if cfg.OutputFormat == "html" {
		if err := report.WriteFile(cfg.OutputFile, top); err != nil {
			return err
		}
	}
	if server != nil {
		if err := server.Update(top); err != nil {
			slog.Warn("report refresh failed", slog.Any("error", err))
		}
	}
	if err := mailer.Send(newJobs); err != nil {
		slog.Warn("notification failed", slog.Any("error", err))
	}

	printSummary(result, top, time.Since(start), cfg)
	return nil
}

// createWriter picks the export writer for a format. HTML rendering reads
// the ranked set separately, so that mode collects in memory only.
func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "html":
		return pipeline.NewCollectWriter(), nil
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		return pipeline.NewDualWriter(base+".csv", base+".json")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// cycleProgress owns the per-cycle progress bar; the source hook fires
// from scraper goroutines, so access is locked.
type cycleProgress struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

func (p *cycleProgress) start(total int) {
	p.mu.Lock()
	p.bar = pb.StartNew(total)
	p.mu.Unlock()
}

func (p *cycleProgress) increment() {
	p.mu.Lock()
	if p.bar != nil {
		p.bar.Increment()
	}
	p.mu.Unlock()
}

func (p *cycleProgress) finish() {
	p.mu.Lock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
	p.mu.Unlock()
}

func printSummary(result *models.ScrapeResult, top []*models.Job, duration time.Duration, cfg *config.Config) {
	if !isTerminal(os.Stdout) {
		slog.Info("scrape complete",
			"jobs", result.TotalCount,
			"new", result.NewCount,
			"errors", result.ErrorCount,
			"failed_sources", result.FailedSources,
			"requests", result.RequestCount,
			"retries", result.RetryCount,
			"duration", duration.Round(time.Second))
		return
	}

	rows := pterm.TableData{{"Source", "Jobs"}}
	for _, source := range cfg.Sources {
		rows = append(rows, []string{source, fmt.Sprintf("%d", result.BySource[source])})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	pterm.Info.Printfln("Scraped %d jobs (%d new) in %v", result.TotalCount, result.NewCount, duration.Round(time.Second))
	if result.ErrorCount > 0 {
		pterm.Warning.Printfln("%d sources failed (%v): %v", result.ErrorCount, result.FailedSources, result.ErrorsByType)
	}
	if result.RetryCount > 0 {
		pterm.Warning.Printfln("%d requests needed retries", result.RetryCount)
	}
	if len(top) > 0 {
		best := top[0]
		pterm.Success.Printfln("Top pick [%d] %s - %s", best.GravyScore, best.Title, best.URL)
	}
	if cfg.OutputFormat == "html" {
		pterm.Info.Printfln("Report written to %s", cfg.OutputFile)
	}
}

func splitList(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
