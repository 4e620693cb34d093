package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/vpn"
)

const linkedinSearchURL = "https://www.linkedin.com/jobs/search"

// linkedinSource scrapes the public (logged-out) LinkedIn job search.
type linkedinSource struct {
	cfg     *config.Config
	vpn     *vpn.Manager
	logger  *slog.Logger
	metrics *Metrics
}

func newLinkedInSource(cfg *config.Config, manager *vpn.Manager, logger *slog.Logger, metrics *Metrics) *linkedinSource {
	return &linkedinSource{cfg: cfg, vpn: manager, logger: logger, metrics: metrics}
}

func (s *linkedinSource) Name() string { return "linkedin" }

func (s *linkedinSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	var (
		jobs    []*models.Job
		seen    = make(map[string]bool)
		lastErr error
	)

	location := firstGeoLocation(s.cfg.Locations, "United States")
	for _, term := range searchTerms(s.cfg) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		params := url.Values{}
		params.Set("keywords", term)
		params.Set("location", location)
		params.Set("f_TPR", "r604800") // past week

		s.metrics.IncRequest(s.Name())
		body, err := s.vpn.Fetch(ctx, linkedinSearchURL, params)
		if err != nil {
			lastErr = err
			s.logger.Warn("linkedin search failed", "term", term, "error", err)
			continue
		}

		found, err := parseLinkedInResults(body)
		if err != nil {
			lastErr = err
			continue
		}
		for _, job := range found {
			if seen[job.URL] {
				continue
			}
			seen[job.URL] = true
			jobs = append(jobs, job)
		}
	}

	if len(jobs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return jobs, nil
}

// parseLinkedInResults extracts job cards from the public search markup.
func parseLinkedInResults(body []byte) ([]*models.Job, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var jobs []*models.Job
	doc.Find("div.base-search-card").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h3.base-search-card__title").Text())
		href, _ := card.Find("a.base-card__full-link").Attr("href")
		if title == "" || href == "" {
			return
		}

		// Strip tracking params so dedupe keys stay stable.
		if idx := strings.Index(href, "?"); idx > 0 {
			href = href[:idx]
		}

		posted := time.Now()
		if datetime, ok := card.Find("time").Attr("datetime"); ok {
			if t, err := time.Parse("2006-01-02", datetime); err == nil {
				posted = t
			}
		}

		jobs = append(jobs, &models.Job{
			Title:    title,
			Company:  strings.TrimSpace(card.Find("h4.base-search-card__subtitle").Text()),
			Location: strings.TrimSpace(card.Find("span.job-search-card__location").Text()),
			URL:      href,
			PostedAt: posted,
		})
	})
	return jobs, nil
}
