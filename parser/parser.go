package parser

import (
	"fmt"
	"strings"

	"github.com/gravyjobs/gravyjobs/models"
)

const maxDescriptionLen = 300

// ValidateJob ensures the scraper captured the required fields.
func ValidateJob(j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("job missing title")
	}
	if strings.TrimSpace(j.URL) == "" {
		return fmt.Errorf("job missing url for %s", j.Title)
	}
	if strings.TrimSpace(j.Source) == "" {
		return fmt.Errorf("job missing source for %s", j.Title)
	}
	return nil
}

// NormalizeText collapses runs of whitespace into single spaces.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// TruncateDescription caps a description at a readable card length.
func TruncateDescription(text string) string {
	text = NormalizeText(text)
	if len(text) <= maxDescriptionLen {
		return text
	}
	cut := text[:maxDescriptionLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// NormalizeCompany trims the junk some boards append after the company name.
func NormalizeCompany(name string) string {
	if idx := strings.IndexByte(name, '\n'); idx >= 0 {
		name = name[:idx]
	}
	name = NormalizeText(name)
	if name == "" {
		return "Unknown"
	}
	return name
}
