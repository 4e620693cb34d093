package notify

import (
	"bytes"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/gravyjobs/gravyjobs/models"
)

func testMailer() *Mailer {
	return &Mailer{
		host:     "smtp.example.com",
		port:     "587",
		username: "sender@example.com",
		password: "secret",
		from:     "sender@example.com",
		to:       "inbox@example.com",
		logger:   slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	}
}

func notifyJob(title, source string, score int) *models.Job {
	return &models.Job{
		Title:      title,
		Source:     source,
		URL:        "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		GravyScore: score,
	}
}

func TestSendBuildsGroupedDigest(t *testing.T) {
	m := testMailer()

	var sentTo []string
	var sentMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sentTo = to
		sentMsg = msg
		return nil
	}

	jobs := []*models.Job{
		notifyJob("WordPress fixes", "freelancer", 60),
		notifyJob("Junior dev", "indeed", 45),
		notifyJob("HTML tweaks", "freelancer", 70),
	}
	if err := m.Send(jobs); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(sentTo) != 1 || sentTo[0] != "inbox@example.com" {
		t.Errorf("sent to %v", sentTo)
	}
	msg := string(sentMsg)
	if !strings.Contains(msg, "Subject: 3 new gravy jobs found") {
		t.Error("missing subject line")
	}
	if !strings.Contains(msg, "== FREELANCER (2 new) ==") {
		t.Error("missing freelancer group header")
	}
	if !strings.Contains(msg, "== INDEED (1 new) ==") {
		t.Error("missing indeed group header")
	}
	// Higher scored job listed first within a group.
	if strings.Index(msg, "HTML tweaks") > strings.Index(msg, "WordPress fixes") {
		t.Error("group not sorted by score")
	}
}

func TestSendCapsJobsPerSource(t *testing.T) {
	m := testMailer()

	var sentMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sentMsg = msg
		return nil
	}

	var jobs []*models.Job
	for i := 0; i < 8; i++ {
		jobs = append(jobs, notifyJob("Job "+string(rune('A'+i)), "remoteok", 10+i))
	}
	if err := m.Send(jobs); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := strings.Count(string(sentMsg), "https://example.com/"); got != perSourceLimit {
		t.Errorf("digest lists %d jobs, want %d", got, perSourceLimit)
	}
}

func TestSendSkipsWhenUnconfigured(t *testing.T) {
	m := testMailer()
	m.host = ""
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send should not be called without configuration")
		return nil
	}

	if err := m.Send([]*models.Job{notifyJob("Anything", "indeed", 10)}); err != nil {
		t.Fatalf("send: %v", err)
	}
}
