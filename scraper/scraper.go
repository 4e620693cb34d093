// Package scraper collects job postings from the supported boards.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/gravy"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/parser"
	"github.com/gravyjobs/gravyjobs/vpn"
)

// Source scrapes one job board.
type Source interface {
	Name() string
	Scrape(ctx context.Context) ([]*models.Job, error)
}

// Scraper fans out over the enabled sources and merges their results.
type Scraper struct {
	cfg     *config.Config
	vpn     *vpn.Manager
	logger  *slog.Logger
	Metrics *Metrics

	// transport overrides every source's HTTP transport. Used in tests.
	transport http.RoundTripper
	sources   []Source

	// onSourceDone runs after each source finishes, for progress display.
	onSourceDone func(source string, jobs int, err error)
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithTransport routes all source traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Scraper) { s.transport = rt }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) { s.logger = logger }
}

// WithSources replaces the default source set.
func WithSources(sources ...Source) Option {
	return func(s *Scraper) { s.sources = sources }
}

// WithSourceHook registers fn to run after each source completes.
func WithSourceHook(fn func(source string, jobs int, err error)) Option {
	return func(s *Scraper) { s.onSourceDone = fn }
}

// New builds a Scraper with one source per enabled board in cfg.
func New(cfg *config.Config, manager *vpn.Manager, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:     cfg,
		vpn:     manager,
		logger:  slog.Default(),
		Metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sources == nil {
		for _, name := range cfg.Sources {
			if src := s.newSource(name); src != nil {
				s.sources = append(s.sources, src)
			}
		}
	}
	return s
}

func (s *Scraper) newSource(name string) Source {
	switch name {
	case "freelancer":
		return newFreelancerSource(s.cfg, s.transport, s.logger, s.Metrics)
	case "craigslist":
		return newCraigslistSource(s.cfg, s.transport, s.logger, s.Metrics)
	case "indeed":
		return newIndeedSource(s.cfg, s.vpn, s.logger, s.Metrics)
	case "linkedin":
		return newLinkedInSource(s.cfg, s.vpn, s.logger, s.Metrics)
	case "remoteok":
		return newRemoteOKSource(s.cfg, s.vpn, s.logger, s.Metrics)
	default:
		s.logger.Warn("unknown source, skipping", "source", name)
		return nil
	}
}

// ScrapeAll runs every source with bounded parallelism. A failing source
// is recorded in the result and does not abort the others.
func (s *Scraper) ScrapeAll(ctx context.Context) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
		BySource:     make(map[string]int),
	}

	var startRequests, startRetries int
	if s.vpn != nil {
		startRequests, startRetries = s.vpn.Stats()
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, src := range s.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			start := time.Now()
			jobs, err := src.Scrape(ctx)
			s.Metrics.ObserveScrape(src.Name(), time.Since(start))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				label := vpn.ErrorLabel(err)
				result.ErrorCount++
				result.FailedSources = append(result.FailedSources, src.Name())
				result.ErrorsByType[label]++
				s.Metrics.IncError(src.Name(), label)
				s.Metrics.IncRun(src.Name(), "error")
				s.logger.Error("source failed",
					"source", src.Name(),
					"error_type", label,
					"error", err)
				if s.onSourceDone != nil {
					s.onSourceDone(src.Name(), 0, err)
				}
				return
			}

			kept := s.clean(src.Name(), jobs)
			result.Jobs = append(result.Jobs, kept...)
			result.BySource[src.Name()] = len(kept)
			s.Metrics.AddJobs(src.Name(), len(kept))
			s.Metrics.IncRun(src.Name(), "ok")
			s.logger.Info("source done",
				"source", src.Name(),
				"jobs", len(kept),
				"elapsed", time.Since(start).Round(time.Millisecond))
			if s.onSourceDone != nil {
				s.onSourceDone(src.Name(), len(kept), nil)
			}
		}(src)
	}
	wg.Wait()

	result.EndTime = time.Now()
	result.TotalCount = len(result.Jobs)
	if s.vpn != nil {
		requests, retries := s.vpn.Stats()
		result.RequestCount = requests - startRequests
		result.RetryCount = retries - startRetries
	}
	return result, ctx.Err()
}

// clean validates and normalizes a source's jobs, keeping at most the
// configured per-source cap.
func (s *Scraper) clean(source string, jobs []*models.Job) []*models.Job {
	kept := make([]*models.Job, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		job.Source = source
		job.Title = parser.NormalizeText(job.Title)
		job.Company = parser.NormalizeCompany(job.Company)
		job.Description = parser.TruncateDescription(parser.NormalizeText(job.Description))
		if job.Salary == "" {
			job.Salary = gravy.ExtractSalary(job.Description)
		}
		if err := parser.ValidateJob(job); err != nil {
			s.logger.Debug("dropping invalid job", "source", source, "error", err)
			continue
		}
		if s.excluded(job) {
			continue
		}
		kept = append(kept, job)
		if s.cfg.MaxJobsPerSource > 0 && len(kept) >= s.cfg.MaxJobsPerSource {
			break
		}
	}
	return kept
}

// excluded reports whether a job trips any exclude keyword.
func (s *Scraper) excluded(job *models.Job) bool {
	text := strings.ToLower(job.Title + " " + job.Description)
	for _, kw := range s.cfg.ExcludeKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// defaultSearchTerms surface beginner-friendly work when the config does
// not carry its own queries.
var defaultSearchTerms = []string{
	"entry level programming",
	"junior developer",
	"beginner programmer",
	"html css developer",
	"wordpress developer",
}

// searchTerms returns the configured board queries, or the defaults.
func searchTerms(cfg *config.Config) []string {
	if len(cfg.SearchTerms) > 0 {
		return cfg.SearchTerms
	}
	return defaultSearchTerms
}

// remoteOnlyLocations are query locations that name a work mode rather
// than a place a board's location parameter could take.
var remoteOnlyLocations = map[string]bool{
	"remote":         true,
	"anywhere":       true,
	"work from home": true,
	"wfh":            true,
	"virtual":        true,
	"telecommute":    true,
}

// firstGeoLocation picks the first configured location that names a real
// place, falling back when the query only asked for remote work.
func firstGeoLocation(locations []string, fallback string) string {
	for _, loc := range locations {
		if !remoteOnlyLocations[strings.ToLower(loc)] {
			return loc
		}
	}
	return fallback
}

// matchesKeywords reports whether text mentions any configured keyword.
// Sources with broad listings use it to pre-filter.
func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
