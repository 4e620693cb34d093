package scraper

import (
	"context"
	"testing"

	"github.com/gravyjobs/gravyjobs/config"
	"github.com/jarcoal/httpmock"
)

const indeedFixture = `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a id="job_abc123" data-jk="abc123"><span>Junior Web Developer</span></a></h2>
  <span class="companyName">Acme Corp</span>
  <div class="companyLocation">Remote</div>
  <div class="salary-snippet">$25 - $30 an hour</div>
  <div class="job-snippet">Entry level position maintaining simple WordPress sites.</div>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a id="job_def456" data-jk="def456"><span>HTML Email Builder</span></a></h2>
  <span class="companyName">Mailworks</span>
  <div class="companyLocation">Austin, TX</div>
  <div class="job-snippet">Build responsive HTML emails from designs.</div>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"></h2>
</div>
</body></html>`

func TestParseIndeedResults(t *testing.T) {
	jobs, err := parseIndeedResults([]byte(indeedFixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("parsed %d jobs, want 2", len(jobs))
	}

	first := jobs[0]
	if first.Title != "Junior Web Developer" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Company != "Acme Corp" {
		t.Errorf("company = %q", first.Company)
	}
	if first.URL != "https://www.indeed.com/viewjob?jk=abc123" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Salary != "$25 - $30 an hour" {
		t.Errorf("salary = %q", first.Salary)
	}

	if jobs[1].URL != "https://www.indeed.com/viewjob?jk=def456" {
		t.Errorf("second url = %q", jobs[1].URL)
	}
}

func TestIndeedUsesConfiguredTermsAndLocation(t *testing.T) {
	transport := httpmock.NewMockTransport()
	// Only the exact query built from the config is answered; anything
	// else fails the scrape.
	transport.RegisterResponder("GET",
		"https://www.indeed.com/jobs?fromage=7&l=austin&q=wordpress&sort=date",
		httpmock.NewStringResponder(200, indeedFixture))

	cfg := config.DefaultConfig()
	cfg.SearchTerms = []string{"wordpress"}
	cfg.Locations = []string{"remote", "austin"}

	src := newIndeedSource(cfg, testVPNManager(t, transport), testLogger(), NewMetrics())
	jobs, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
}

func TestIndeedSourceDeduplicatesAcrossTerms(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `=~^https://www\.indeed\.com/jobs`,
		httpmock.NewStringResponder(200, indeedFixture))

	cfg := config.DefaultConfig()
	src := newIndeedSource(cfg, testVPNManager(t, transport), testLogger(), NewMetrics())

	jobs, err := src.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	// Every search term returns the same fixture; dedupe keeps two jobs.
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
}
