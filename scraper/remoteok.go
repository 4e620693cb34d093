package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gravyjobs/gravyjobs/config"
	"github.com/gravyjobs/gravyjobs/models"
	"github.com/gravyjobs/gravyjobs/vpn"
)

const remoteOKAPI = "https://remoteok.com/api"

// remoteOKJob is the wire format of the RemoteOK API. The first array
// element is a legal notice, not a posting.
type remoteOKJob struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	SalaryMin   int      `json:"salary_min"`
	SalaryMax   int      `json:"salary_max"`
	URL         string   `json:"url"`
	Date        string   `json:"date"`
	Epoch       int64    `json:"epoch"`
}

// remoteOKSource reads the RemoteOK JSON API.
type remoteOKSource struct {
	cfg     *config.Config
	vpn     *vpn.Manager
	logger  *slog.Logger
	metrics *Metrics
}

func newRemoteOKSource(cfg *config.Config, manager *vpn.Manager, logger *slog.Logger, metrics *Metrics) *remoteOKSource {
	return &remoteOKSource{cfg: cfg, vpn: manager, logger: logger, metrics: metrics}
}

func (s *remoteOKSource) Name() string { return "remoteok" }

func (s *remoteOKSource) Scrape(ctx context.Context) ([]*models.Job, error) {
	s.metrics.IncRequest(s.Name())
	body, err := s.vpn.Fetch(ctx, remoteOKAPI, nil)
	if err != nil {
		return nil, err
	}

	var raw []remoteOKJob
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode remoteok response: %w", err)
	}

	var jobs []*models.Job
	for i, item := range raw {
		// Skip the legal notice element.
		if i == 0 && item.Position == "" {
			continue
		}
		if item.Position == "" || item.URL == "" {
			continue
		}
		text := item.Position + " " + strings.Join(item.Tags, " ")
		if !matchesKeywords(text, s.cfg.Keywords) {
			continue
		}

		jobs = append(jobs, &models.Job{
			Title:       item.Position,
			Company:     item.Company,
			Description: stripTags(item.Description),
			Location:    orDefault(item.Location, "Remote"),
			Salary:      formatSalaryRange(item.SalaryMin, item.SalaryMax),
			URL:         item.URL,
			PostedAt:    postedTime(item),
		})
	}
	return jobs, nil
}

func postedTime(item remoteOKJob) time.Time {
	if item.Epoch > 0 {
		return time.Unix(item.Epoch, 0)
	}
	if t, err := time.Parse(time.RFC3339, item.Date); err == nil {
		return t
	}
	return time.Now()
}

func formatSalaryRange(min, max int) string {
	if min <= 0 {
		return ""
	}
	if max > min {
		return fmt.Sprintf("$%d - $%d", min, max)
	}
	return fmt.Sprintf("$%d", min)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// stripTags flattens the HTML fragments RemoteOK embeds in descriptions.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
