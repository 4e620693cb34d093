package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gravyjobs/gravyjobs/models"
)

// CSVWriter writes records to CSV.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"title", "company", "location", "salary", "source", "gravy_score", "url", "posted_at", "description"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		filename: filename,
		file:     f,
		writer:   writer,
	}, nil
}

// Write appends jobs to the CSV output.
func (cw *CSVWriter) Write(jobs []*models.Job) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, job := range jobs {
		record := []string{
			job.Title,
			job.Company,
			job.Location,
			job.Salary,
			job.Source,
			strconv.Itoa(job.GravyScore),
			job.URL,
			job.PostedAt.Format(time.RFC3339),
			job.Description,
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.filename)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter accumulates jobs and writes one JSON array on Close, which
// keeps the output directly loadable by the history store and the report.
type JSONWriter struct {
	filename string
	mu       sync.Mutex
	jobs     []*models.Job
	written  bool
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename}, nil
}

// Write buffers jobs for the final array.
func (jw *JSONWriter) Write(jobs []*models.Job) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.jobs = append(jw.jobs, jobs...)
	return nil
}

// Close writes the accumulated array to disk.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	data, err := json.MarshalIndent(jw.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	if err := os.WriteFile(jw.filename, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	jw.written = true
	return nil
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if !jw.written {
		return fmt.Errorf("json file not written")
	}
	info, err := os.Stat(jw.filename)
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// CollectWriter keeps jobs in memory. It backs output modes that render
// from the processed set instead of streaming to a file.
type CollectWriter struct {
	mu   sync.Mutex
	jobs []*models.Job
}

// NewCollectWriter returns an empty in-memory writer.
func NewCollectWriter() *CollectWriter {
	return &CollectWriter{}
}

// Write appends jobs to the in-memory set.
func (cw *CollectWriter) Write(jobs []*models.Job) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.jobs = append(cw.jobs, jobs...)
	return nil
}

// Close is a no-op.
func (cw *CollectWriter) Close() error { return nil }

// Validate reports an error when nothing was collected.
func (cw *CollectWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if len(cw.jobs) == 0 {
		return fmt.Errorf("no jobs collected")
	}
	return nil
}

// Jobs returns the collected jobs.
func (cw *CollectWriter) Jobs() []*models.Job {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	out := make([]*models.Job, len(cw.jobs))
	copy(out, cw.jobs)
	return out
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
