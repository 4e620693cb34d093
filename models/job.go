// Package models defines data structures shared across the scrapers.
package models

import "time"

// Job represents a single job posting collected from any source.
type Job struct {
	Title        string    `csv:"title" json:"title"`
	Company      string    `csv:"company" json:"company,omitempty"`
	Description  string    `csv:"description" json:"description"`
	URL          string    `csv:"url" json:"url"`
	Source       string    `csv:"source" json:"source"`
	Location     string    `csv:"location" json:"location,omitempty"`
	Salary       string    `csv:"salary" json:"salary,omitempty"`
	PostedAt     time.Time `csv:"posted_at" json:"posted_at"`
	GravyScore   int       `csv:"gravy_score" json:"gravy_score"`
	GravyReasons []string  `csv:"-" json:"gravy_reasons,omitempty"`
}

// ScrapeResult holds the overall outcome of one scraping run.
type ScrapeResult struct {
	Jobs          []*Job
	StartTime     time.Time
	EndTime       time.Time
	TotalCount    int
	NewCount      int
	ErrorCount    int
	FailedSources []string
	ErrorsByType  map[string]int
	RetryCount    int
	RequestCount  int
	BySource      map[string]int
}
