// Package report renders scraped jobs as a static HTML page and serves it
// locally.
package report

import (
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gravyjobs/gravyjobs/gravy"
	"github.com/gravyjobs/gravyjobs/models"
)

// sectionOrder fixes how category bands appear on the page.
var sectionOrder = []string{
	gravy.CategoryAmazing,
	gravy.CategoryGreat,
	gravy.CategoryGood,
	gravy.CategoryOK,
	gravy.CategoryOther,
}

var sectionTitles = map[string]string{
	gravy.CategoryAmazing: "Amazing Opportunities",
	gravy.CategoryGreat:   "Great Finds",
	gravy.CategoryGood:    "Good Prospects",
	gravy.CategoryOK:      "Worth a Look",
	gravy.CategoryOther:   "Everything Else",
}

type section struct {
	Title string
	Jobs  []*models.Job
}

type pageData struct {
	GeneratedAt string
	Total       int
	Sections    []section
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"age": func(t time.Time) string {
		if t.IsZero() {
			return "unknown"
		}
		return humanize.Time(t)
	},
	"reasons": func(rs []string) string {
		return strings.Join(rs, ", ")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Gravy Jobs</title>
<style>
  body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
  h1 { border-bottom: 3px solid #e8a33d; padding-bottom: .5rem; }
  h2 { margin-top: 2rem; color: #555; }
  .meta { color: #888; font-size: .9rem; }
  .card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin: .75rem 0; }
  .card h3 { margin: 0 0 .25rem; }
  .card a { color: #1a5fb4; text-decoration: none; }
  .score { float: right; background: #e8a33d; color: #fff; border-radius: 12px; padding: .1rem .6rem; font-weight: bold; }
  .tags { color: #777; font-size: .85rem; margin-top: .5rem; }
  .salary { color: #2a7d2a; font-weight: bold; }
</style>
</head>
<body>
<h1>Gravy Jobs</h1>
<p class="meta">Generated {{.GeneratedAt}} &middot; {{.Total}} jobs</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{range .Jobs}}
<div class="card">
  <span class="score">{{.GravyScore}}</span>
  <h3><a href="{{.URL}}">{{.Title}}</a></h3>
  <p class="meta">{{.Company}}{{if .Location}} &middot; {{.Location}}{{end}} &middot; {{.Source}} &middot; posted {{age .PostedAt}}</p>
  {{if .Salary}}<p class="salary">{{.Salary}}</p>{{end}}
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  {{if .GravyReasons}}<p class="tags">{{reasons .GravyReasons}}</p>{{end}}
</div>
{{end}}
{{end}}
</body>
</html>
`))

// Render produces the report HTML for the given jobs, one card per job,
// grouped into score bands.
func Render(jobs []*models.Job) ([]byte, error) {
	grouped := make(map[string][]*models.Job)
	for _, job := range jobs {
		if job == nil {
			continue
		}
		cat := gravy.Category(job.GravyScore)
		grouped[cat] = append(grouped[cat], job)
	}

	data := pageData{
		GeneratedAt: time.Now().Format("Jan 2, 2006 at 3:04 PM"),
	}
	for _, cat := range sectionOrder {
		jobs := grouped[cat]
		if len(jobs) == 0 {
			continue
		}
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].GravyScore > jobs[j].GravyScore
		})
		data.Sections = append(data.Sections, section{Title: sectionTitles[cat], Jobs: jobs})
		data.Total += len(jobs)
	}

	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return []byte(buf.String()), nil
}

// WriteFile renders the report and writes it to path.
func WriteFile(path string, jobs []*models.Job) error {
	html, err := Render(jobs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
