package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gravyjobs/gravyjobs/models"
)

// historyCap bounds the job history so the data file stays manageable.
const historyCap = 1000

// History persists every job ever seen in a JSON array on disk. Merging
// keeps one entry per URL, newest postings first.
type History struct {
	path  string
	jobs  []*models.Job
	byURL map[string]*models.Job
}

// LoadHistory reads the data file. A missing file yields an empty history.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path, byURL: make(map[string]*models.Job)}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &h.jobs); err != nil {
			return nil, fmt.Errorf("parse history %s: %w", path, err)
		}
	case os.IsNotExist(err):
		return h, nil
	default:
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	for _, job := range h.jobs {
		if job != nil {
			h.byURL[job.URL] = job
		}
	}
	return h, nil
}

// IsNew reports whether a job URL has never been seen before.
func (h *History) IsNew(url string) bool {
	_, seen := h.byURL[url]
	return !seen
}

// Len returns the number of stored jobs.
func (h *History) Len() int {
	return len(h.jobs)
}

// Jobs returns the stored jobs, newest first.
func (h *History) Jobs() []*models.Job {
	out := make([]*models.Job, len(h.jobs))
	copy(out, h.jobs)
	return out
}

// Merge folds freshly scraped jobs into the history. Existing URLs are
// refreshed in place, the list is re-sorted newest first and capped.
// It returns how many of the incoming jobs were new.
func (h *History) Merge(jobs []*models.Job) int {
	newCount := 0
	for _, job := range jobs {
		if job == nil || job.URL == "" {
			continue
		}
		if existing, ok := h.byURL[job.URL]; ok {
			*existing = *job
			continue
		}
		h.jobs = append(h.jobs, job)
		h.byURL[job.URL] = job
		newCount++
	}

	sort.SliceStable(h.jobs, func(i, j int) bool {
		return h.jobs[i].PostedAt.After(h.jobs[j].PostedAt)
	})

	if len(h.jobs) > historyCap {
		for _, dropped := range h.jobs[historyCap:] {
			delete(h.byURL, dropped.URL)
		}
		h.jobs = h.jobs[:historyCap]
	}
	return newCount
}

// Save writes the history back to its data file.
func (h *History) Save() error {
	if err := ensureDir(h.path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write history %s: %w", h.path, err)
	}
	return nil
}

// SaveTop writes the ranked subset to a separate file.
func SaveTop(path string, jobs []*models.Job) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode top jobs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write top jobs %s: %w", path, err)
	}
	return nil
}
