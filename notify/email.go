// Package notify sends email digests when new jobs land.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"sort"
	"strings"

	"github.com/gravyjobs/gravyjobs/models"
)

// perSourceLimit caps how many jobs each source contributes to a digest.
const perSourceLimit = 5

// Mailer sends job digests over SMTP. Credentials come from the
// environment; with none set, Enabled is false and Send is a no-op.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	to       string
	logger   *slog.Logger

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer reads SMTP settings from GRAVY_SMTP_HOST, GRAVY_SMTP_PORT,
// GRAVY_SMTP_USER, GRAVY_SMTP_PASS, and GRAVY_NOTIFY_TO.
func NewMailer(logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		host:     os.Getenv("GRAVY_SMTP_HOST"),
		port:     envDefault("GRAVY_SMTP_PORT", "587"),
		username: os.Getenv("GRAVY_SMTP_USER"),
		password: os.Getenv("GRAVY_SMTP_PASS"),
		from:     os.Getenv("GRAVY_SMTP_USER"),
		to:       os.Getenv("GRAVY_NOTIFY_TO"),
		logger:   logger,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether the mailer has enough configuration to send.
func (m *Mailer) Enabled() bool {
	return m.host != "" && m.username != "" && m.password != "" && m.to != ""
}

// Send emails a digest of new jobs, grouped by source. Without
// configuration or new jobs it does nothing.
func (m *Mailer) Send(jobs []*models.Job) error {
	if !m.Enabled() {
		m.logger.Debug("mailer not configured, skipping notification")
		return nil
	}
	if len(jobs) == 0 {
		return nil
	}

	body := m.digest(jobs)
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + m.to,
		fmt.Sprintf("Subject: %d new gravy jobs found", len(jobs)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port
	if err := m.send(addr, auth, m.from, []string{m.to}, []byte(msg)); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	m.logger.Info("notification sent", "jobs", len(jobs), "to", m.to)
	return nil
}

// digest builds the plain-text body, top jobs per source first.
func (m *Mailer) digest(jobs []*models.Job) string {
	bySource := make(map[string][]*models.Job)
	for _, job := range jobs {
		if job == nil {
			continue
		}
		bySource[job.Source] = append(bySource[job.Source], job)
	}

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d new jobs.\n\n", len(jobs))
	for _, source := range sources {
		group := bySource[source]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].GravyScore > group[j].GravyScore
		})
		if len(group) > perSourceLimit {
			group = group[:perSourceLimit]
		}

		fmt.Fprintf(&b, "== %s (%d new) ==\n", strings.ToUpper(source), len(bySource[source]))
		for _, job := range group {
			fmt.Fprintf(&b, "  [%d] %s", job.GravyScore, job.Title)
			if job.Salary != "" {
				fmt.Fprintf(&b, " (%s)", job.Salary)
			}
			fmt.Fprintf(&b, "\n      %s\n", job.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
