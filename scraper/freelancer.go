package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
)

const freelancerBase = "https://www.freelancer.com"

// freelancerSource crawls freelancer.com project search pages.
type freelancerSource struct {
	cfg       *config.Config
	transport http.RoundTripper
	logger    *slog.Logger
	metrics   *Metrics
}

func newFreelancerSource(cfg *config.Config, transport http.RoundTripper, logger *slog.Logger, metrics *Metrics) *freelancerSource {
	return &freelancerSource{cfg: cfg, transport: transport, logger: logger, metrics: metrics}
}

func (f *freelancerSource) Name() string { return "freelancer" }

func (f *freelancerSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains("www.freelancer.com", "freelancer.com"),
	)
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*freelancer.com*",
		Parallelism: 2,
		RandomDelay: 2 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	var (
		mu      sync.Mutex
		jobs    []*models.Job
		lastErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		f.metrics.IncRequest(f.Name())
	})

	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		lastErr = err
		mu.Unlock()
		f.logger.Warn("freelancer request failed", "url", r.Request.URL.String(), "error", err)
	})

	collector.OnHTML(".JobSearchCard-item", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(".JobSearchCard-primary-heading-link"))
		href := e.ChildAttr(".JobSearchCard-primary-heading-link", "href")
		if title == "" || href == "" {
			return
		}
		job := &models.Job{
			Title:       title,
			Company:     "Freelancer Client",
			Description: strings.TrimSpace(e.ChildText(".JobSearchCard-primary-description")),
			Salary:      strings.TrimSpace(e.ChildText(".JobSearchCard-primary-price")),
			URL:         e.Request.AbsoluteURL(href),
			PostedAt:    time.Now(),
		}
		mu.Lock()
		jobs = append(jobs, job)
		mu.Unlock()
	})

	for _, term := range searchTerms(f.cfg) {
		if ctx.Err() != nil {
			break
		}
		q := url.Values{}
		q.Set("keyword", term)
		if err := collector.Visit(freelancerBase + "/jobs/?" + q.Encode()); err != nil {
			mu.Lock()
			lastErr = err
			mu.Unlock()
		}
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return jobs, nil
}
