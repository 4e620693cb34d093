package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
)

// Craigslist job categories: web design and software.
var craigslistCategories = []string{"web", "sof"}

// detailFetchLimit caps posting-body visits per city so a big board does
// not burn the whole request budget.
const detailFetchLimit = 10

// craigslistSource crawls craigslist job boards city by city. Listing
// markup varies between cities, so several selector generations are tried.
type craigslistSource struct {
	cfg       *config.Config
	transport http.RoundTripper
	logger    *slog.Logger
	metrics   *Metrics
}

func newCraigslistSource(cfg *config.Config, transport http.RoundTripper, logger *slog.Logger, metrics *Metrics) *craigslistSource {
	return &craigslistSource{cfg: cfg, transport: transport, logger: logger, metrics: metrics}
}

func (c *craigslistSource) Name() string { return "craigslist" }

// citiesFor narrows the configured cities to the ones the query locations
// name. Locations that match no craigslist city leave the list untouched.
func citiesFor(cfg *config.Config) []string {
	if len(cfg.Locations) == 0 {
		return cfg.Cities
	}
	var matched []string
	for _, loc := range cfg.Locations {
		key := strings.ReplaceAll(strings.ToLower(loc), " ", "")
		for _, city := range cfg.Cities {
			if city == key {
				matched = append(matched, city)
			}
		}
	}
	if len(matched) == 0 {
		return cfg.Cities
	}
	return matched
}

func (c *craigslistSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	cities := citiesFor(c.cfg)
	domains := make([]string, 0, len(cities))
	for _, city := range cities {
		domains = append(domains, city+".craigslist.org")
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(domains...),
	)
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	if c.transport != nil {
		collector.WithTransport(c.transport)
	}
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*craigslist.org*",
		Parallelism: 2,
		RandomDelay: 3 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	var (
		mu           sync.Mutex
		byURL        = make(map[string]*models.Job)
		detailVisits int
		lastErr      error
	)

	addJob := func(e *colly.HTMLElement, title, href string) {
		title = strings.TrimSpace(title)
		if title == "" || href == "" {
			return
		}
		if !matchesKeywords(title, c.cfg.Keywords) {
			return
		}
		jobURL := e.Request.AbsoluteURL(href)

		mu.Lock()
		defer mu.Unlock()
		if _, seen := byURL[jobURL]; seen {
			return
		}
		byURL[jobURL] = &models.Job{
			Title:       title,
			Company:     "Craigslist Poster",
			Description: title,
			URL:         jobURL,
			Location:    e.Request.URL.Hostname(),
			PostedAt:    time.Now(),
		}
		if detailVisits < detailFetchLimit {
			detailVisits++
			if err := e.Request.Visit(jobURL); err != nil {
				c.logger.Debug("craigslist detail visit failed", "url", jobURL, "error", err)
			}
		}
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		c.metrics.IncRequest(c.Name())
	})

	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		lastErr = err
		mu.Unlock()
		c.logger.Warn("craigslist request failed", "url", r.Request.URL.String(), "error", err)
	})

	// Current static markup.
	collector.OnHTML("li.cl-static-search-result", func(e *colly.HTMLElement) {
		addJob(e, e.ChildText("div.title"), e.ChildAttr("a", "href"))
	})
	// Older result-row markup still served by some regions.
	collector.OnHTML("div.result-row p.result-info", func(e *colly.HTMLElement) {
		addJob(e, e.ChildText("a.result-title"), e.ChildAttr("a.result-title", "href"))
	})

	collector.OnHTML("#postingbody", func(e *colly.HTMLElement) {
		body := strings.TrimSpace(strings.TrimPrefix(e.Text, "QR Code Link to This Post"))
		mu.Lock()
		defer mu.Unlock()
		if job, ok := byURL[e.Request.URL.String()]; ok && body != "" {
			job.Description = body
		}
	})

	for _, city := range cities {
		for _, category := range craigslistCategories {
			if ctx.Err() != nil {
				break
			}
			listURL := fmt.Sprintf("https://%s.craigslist.org/search/%s", city, category)
			if err := collector.Visit(listURL); err != nil {
				mu.Lock()
				lastErr = err
				mu.Unlock()
			}
		}
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobs := make([]*models.Job, 0, len(byURL))
	mu.Lock()
	for _, job := range byURL {
		jobs = append(jobs, job)
	}
	mu.Unlock()

	if len(jobs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return jobs, nil
}
