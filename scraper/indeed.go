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

const indeedBase = "https://www.indeed.com"

// indeedSource scrapes indeed.com search results. Indeed blocks plain
// clients aggressively, so every request goes through the rotation layer.
type indeedSource struct {
	cfg     *config.Config
	vpn     *vpn.Manager
	logger  *slog.Logger
	metrics *Metrics
}

func newIndeedSource(cfg *config.Config, manager *vpn.Manager, logger *slog.Logger, metrics *Metrics) *indeedSource {
	return &indeedSource{cfg: cfg, vpn: manager, logger: logger, metrics: metrics}
}

func (s *indeedSource) Name() string { return "indeed" }

func (s *indeedSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	var (
		jobs    []*models.Job
		seen    = make(map[string]bool)
		lastErr error
	)

	location := firstGeoLocation(s.cfg.Locations, "Remote")
	for _, term := range searchTerms(s.cfg) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		params := url.Values{}
		params.Set("q", term)
		params.Set("l", location)
		params.Set("fromage", "7")
		params.Set("sort", "date")

		s.metrics.IncRequest(s.Name())
		body, err := s.vpn.Fetch(ctx, indeedBase+"/jobs", params)
		if err != nil {
			lastErr = err
			s.logger.Warn("indeed search failed", "term", term, "error", err)
			continue
		}

		found, err := parseIndeedResults(body)
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

// parseIndeedResults extracts job cards from a search results page.
func parseIndeedResults(body []byte) ([]*models.Job, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var jobs []*models.Job
	doc.Find("div.job_seen_beacon, div.jobsearch-SerpJobCard, td.resultContent").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h2.jobTitle").Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("h2.jobTitle span").Text())
		}
		if title == "" {
			return
		}

		jobURL := ""
		if jk, ok := card.Find(`a[id^="job_"]`).Attr("data-jk"); ok && jk != "" {
			jobURL = indeedBase + "/viewjob?jk=" + jk
		} else if href, ok := card.Find("h2.jobTitle a").Attr("href"); ok && href != "" {
			jobURL = indeedBase + href
		}
		if jobURL == "" {
			return
		}

		jobs = append(jobs, &models.Job{
			Title:       title,
			Company:     strings.TrimSpace(card.Find("span.companyName").Text()),
			Description: strings.TrimSpace(card.Find("div.job-snippet").Text()),
			Salary:      strings.TrimSpace(card.Find("div.salary-snippet, div.salary-snippet-container").Text()),
			Location:    strings.TrimSpace(card.Find("div.companyLocation").Text()),
			URL:         jobURL,
			PostedAt:    time.Now(),
		})
	})
	return jobs, nil
}
