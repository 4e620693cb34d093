// Package gravy scores job postings by how easy, well-paid, and
// beginner-friendly they appear.
package gravy

import (
	"fmt"
	"strings"
	"time"

	"github.com/gravyjobs/gravyjobs/models"
)

// Scores are clamped to this range.
const (
	MinScore = -50
	MaxScore = 100
)

var (
	entryTerms = []string{"entry", "junior", "beginner", "intern", "trainee", "jr."}
	easyTerms  = []string{"simple", "basic", "easy", "straightforward"}
)

// easyJobType awards points when a title or description names work that is
// typically approachable for beginners.
type easyJobType struct {
	terms  []string
	points int
	reason string
}

var easyJobTypes = []easyJobType{
	{[]string{"wordpress", "website"}, 15, "WordPress/website development"},
	{[]string{"html", "css"}, 15, "HTML/CSS work"},
	{[]string{"web design"}, 12, "web design"},
	{[]string{"qa", "testing"}, 15, "QA/testing role"},
	{[]string{"data entry"}, 20, "data entry"},
	{[]string{"support"}, 10, "support role"},
}

// redFlag deducts points for signals that a posting is not beginner work.
type redFlag struct {
	term      string
	deduction int
	reason    string
}

var redFlags = []redFlag{
	{"senior", 20, "senior position"},
	{"lead", 15, "leadership role"},
	{"expert", 15, "expert-level position"},
	{"years experience", 10, "experience requirements"},
	{"advanced", 10, "advanced skills required"},
	{"machine learning", 10, "complex technical field"},
	{"deep learning", 10, "complex technical field"},
	{"architect", 15, "architect-level position"},
}

// Score computes the gravy score for a job along with the reasons behind it.
// The result is always within [MinScore, MaxScore].
func Score(job *models.Job) (int, []string) {
	if job == nil {
		return 0, nil
	}

	title := strings.ToLower(job.Title)
	desc := strings.ToLower(job.Description)
	score := 0
	var reasons []string

	if containsAny(title, entryTerms) {
		score += 20
		reasons = append(reasons, "entry-level terms in title")
	} else if containsAny(desc, entryTerms) {
		score += 10
		reasons = append(reasons, "entry-level terms in description")
	}

	if containsAny(title, easyTerms) {
		score += 25
		reasons = append(reasons, "described as simple/easy in title")
	} else if containsAny(desc, easyTerms) {
		score += 15
		reasons = append(reasons, "described as simple/easy in description")
	}

	if job.Salary != "" {
		points, reason := salaryPoints(job.Salary)
		score += points
		reasons = append(reasons, reason)
	}

	if strings.Contains(title, "remote") || strings.Contains(title, "work from home") {
		score += 20
		reasons = append(reasons, "remote work in title")
	} else if strings.Contains(desc, "remote") || strings.Contains(desc, "work from home") {
		score += 15
		reasons = append(reasons, "remote work in description")
	}

	for _, jt := range easyJobTypes {
		if containsAny(title, jt.terms) {
			score += jt.points
			reasons = append(reasons, jt.reason)
		} else if containsAny(desc, jt.terms) {
			score += jt.points / 2
			reasons = append(reasons, jt.reason+" (description)")
		}
	}

	for _, rf := range redFlags {
		if strings.Contains(title, rf.term) {
			score -= rf.deduction
			reasons = append(reasons, rf.reason)
		} else if strings.Contains(desc, rf.term) {
			score -= rf.deduction / 2
			reasons = append(reasons, rf.reason+" (description)")
		}
	}

	if strings.Contains(strings.ToLower(job.Source), "freelancer") {
		score += 10
		reasons = append(reasons, "freelance platform, beginner-friendly")
	}

	if !job.PostedAt.IsZero() {
		switch age := time.Since(job.PostedAt); {
		case age < 24*time.Hour:
			score += 15
			reasons = append(reasons, "posted within the last day")
		case age < 72*time.Hour:
			score += 10
			reasons = append(reasons, "posted within the last 3 days")
		case age < 7*24*time.Hour:
			score += 5
			reasons = append(reasons, "posted within the last week")
		}
	}

	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score, reasons
}

// salaryPoints rewards pay information, scaled by how good the pay looks.
func salaryPoints(salary string) (int, string) {
	figure, ok := parseSalary(salary)
	if !ok {
		return 10, "salary information available"
	}

	if figure.hourly {
		switch {
		case figure.amount >= 30:
			return 35, fmt.Sprintf("great hourly pay: ~$%d/hr", figure.amount)
		case figure.amount >= 20:
			return 25, fmt.Sprintf("good hourly pay: ~$%d/hr", figure.amount)
		case figure.amount >= 15:
			return 15, fmt.Sprintf("decent hourly pay: ~$%d/hr", figure.amount)
		default:
			return 0, fmt.Sprintf("low hourly pay: ~$%d/hr", figure.amount)
		}
	}

	switch {
	case figure.amount >= 80000:
		return 30, fmt.Sprintf("excellent salary: ~$%d", figure.amount)
	case figure.amount >= 60000:
		return 20, fmt.Sprintf("great salary: ~$%d", figure.amount)
	case figure.amount >= 5000:
		return 15, fmt.Sprintf("good compensation: ~$%d", figure.amount)
	default:
		return 10, "salary information available"
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
