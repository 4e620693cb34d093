// Package config holds scraper configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// KnownSources lists every job board this tool can scrape.
var KnownSources = []string{"freelancer", "craigslist", "indeed", "remoteok", "linkedin"}

// Config holds job scraper configuration.
type Config struct {
	Keywords        []string
	ExcludeKeywords []string
	SearchTerms     []string
	Locations       []string
	Cities          []string
	Sources         []string

	MaxJobsPerSource int
	TopLimit         int
	Workers          int
	Timeout          time.Duration
	Interval         time.Duration

	DataFile     string
	TopJobsFile  string
	OutputFile   string
	OutputFormat string // json, csv, html, or dual (csv+json)

	VPNConfigFile string
	CacheDir      string

	Verbose bool
}

// DefaultConfig returns the defaults used for unattended daily runs.
func DefaultConfig() *Config {
	return &Config{
		Keywords: []string{
			"simple", "basic", "beginner", "entry level", "junior",
			"wordpress", "html", "css", "remote",
		},
		ExcludeKeywords: []string{
			"senior", "lead", "expert", "5+ years", "7+ years", "10+ years",
		},
		SearchTerms: []string{
			"entry level programming",
			"junior developer",
			"beginner programmer",
			"html css developer",
			"wordpress developer",
		},
		Cities: []string{
			"newyork", "losangeles", "chicago", "houston", "phoenix",
			"philadelphia", "sanantonio", "sandiego", "dallas", "austin",
			"sanjose", "seattle", "denver", "boston",
		},
		Sources:          []string{"freelancer", "craigslist", "indeed", "remoteok", "linkedin"},
		MaxJobsPerSource: 50,
		TopLimit:         100,
		Workers:          4,
		Timeout:          30 * time.Second,
		Interval:         24 * time.Hour,
		DataFile:         "all_jobs.json",
		TopJobsFile:      "top_jobs.json",
		OutputFile:       "jobs.html",
		OutputFormat:     "html",
		VPNConfigFile:    "vpn_config.json",
		CacheDir:         "cache",
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.Keywords) == 0 {
		return fmt.Errorf("keywords cannot be empty")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	for _, src := range c.Sources {
		if !IsValidSource(src) {
			return fmt.Errorf("unknown source %q (valid: %s)", src, strings.Join(KnownSources, ", "))
		}
	}
	if c.MaxJobsPerSource <= 0 {
		return fmt.Errorf("max jobs per source must be positive")
	}
	if c.TopLimit <= 0 {
		return fmt.Errorf("top limit must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}
	if c.DataFile == "" {
		return fmt.Errorf("data file cannot be empty")
	}
	if c.TopJobsFile == "" {
		return fmt.Errorf("top jobs file cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "json", "csv", "html", "dual":
	default:
		return fmt.Errorf("output format must be json, csv, html, or dual")
	}
	return nil
}

// SourceEnabled reports whether a source is part of this run.
func (c *Config) SourceEnabled(name string) bool {
	for _, src := range c.Sources {
		if strings.EqualFold(src, name) {
			return true
		}
	}
	return false
}

// IsValidSource reports whether name is a scrapeable job board.
func IsValidSource(name string) bool {
	for _, src := range KnownSources {
		if strings.EqualFold(src, name) {
			return true
		}
	}
	return false
}
