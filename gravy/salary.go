package gravy

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns covering the salary formats job boards actually emit. Order
// matters: ranges must match before single amounts.
var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*\s*-\s*\$\d{1,3}(?:,\d{3})*`),          // $50,000 - $70,000
	regexp.MustCompile(`\$\d{1,2}(?:\.\d{2})?\s*(?:per hour|/hr|/hour|an hour)`),   // $15 per hour
	regexp.MustCompile(`\d{2,3}\s*(?:per hour|/hr|/hour|an hour)`),                 // 15/hr
	regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),                         // $50,000
	regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d{2})?\s*(?:USD|dollars)`),         // 50,000 USD
	regexp.MustCompile(`\d{1,3}(?:,\d{3})*[kK]`),                                   // 50k
}

var numberPattern = regexp.MustCompile(`\d+`)

// Markers are anchored so words like "week" or "shrink" cannot trip the
// hourly and thousands branches.
var (
	hourlyMarker = regexp.MustCompile(`(?:\bhr\b|hour)`)
	kMarker      = regexp.MustCompile(`\b\d+[kK]\b`)
)

// HasSalary reports whether text contains something that looks like pay.
func HasSalary(text string) bool {
	return ExtractSalary(text) != ""
}

// ExtractSalary pulls the first salary-looking fragment out of text.
func ExtractSalary(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range salaryPatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// salaryFigure is the interpretation of a raw salary string.
type salaryFigure struct {
	hourly bool
	amount int // dollars per hour, or dollars per year
}

// parseSalary interprets a salary string. Hourly rates are recognized by
// "hour"/"hr" markers, "50k" style amounts are scaled to dollars, and
// otherwise the largest number found is taken as the annual figure.
func parseSalary(salary string) (salaryFigure, bool) {
	lower := strings.ToLower(salary)
	raw := numberPattern.FindAllString(strings.ReplaceAll(lower, ",", ""), -1)
	if len(raw) == 0 {
		return salaryFigure{}, false
	}

	numbers := make([]int, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return salaryFigure{}, false
	}

	if hourlyMarker.MatchString(lower) {
		return salaryFigure{hourly: true, amount: numbers[0]}, true
	}
	if kMarker.MatchString(strings.ReplaceAll(lower, ",", "")) {
		return salaryFigure{amount: numbers[0] * 1000}, true
	}
	max := numbers[0]
	for _, n := range numbers[1:] {
		if n > max {
			max = n
		}
	}
	return salaryFigure{amount: max}, true
}
