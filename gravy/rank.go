package gravy

import (
	"sort"

	"github.com/gravyjobs/gravyjobs/models"
)

// Category bands used to group jobs in reports.
const (
	CategoryAmazing = "amazing"
	CategoryGreat   = "great"
	CategoryGood    = "good"
	CategoryOK      = "ok"
	CategoryOther   = "other"
)

// Category maps a gravy score to its report band.
func Category(score int) string {
	switch {
	case score >= 70:
		return CategoryAmazing
	case score >= 50:
		return CategoryGreat
	case score >= 30:
		return CategoryGood
	case score >= 10:
		return CategoryOK
	default:
		return CategoryOther
	}
}

// ScoreAll fills in GravyScore and GravyReasons for every job.
func ScoreAll(jobs []*models.Job) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		job.GravyScore, job.GravyReasons = Score(job)
	}
}

// RankTop scores the jobs and returns the top ones, highest score first.
// Ties break toward the more recent posting. The input slice is not modified.
func RankTop(jobs []*models.Job, limit int) []*models.Job {
	ScoreAll(jobs)

	ranked := make([]*models.Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			ranked = append(ranked, job)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].GravyScore != ranked[j].GravyScore {
			return ranked[i].GravyScore > ranked[j].GravyScore
		}
		return ranked[i].PostedAt.After(ranked[j].PostedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
