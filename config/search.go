package config

import (
	"sort"
	"strings"
)

// SearchParams is the expansion of a free-text query into scrape filters.
type SearchParams struct {
	Keywords        []string `json:"keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
	Locations       []string `json:"locations"`
}

// Named templates for common searches. Matching the query against a template
// name short-circuits keyword extraction.
var searchTemplates = map[string]SearchParams{
	"default": {
		Keywords:        []string{"entry level", "beginner", "junior", "html", "css", "remote"},
		ExcludeKeywords: []string{"senior", "lead", "5+ years", "7+ years"},
		Locations:       []string{"remote", "usa", "anywhere"},
	},
	"msp_provider": {
		Keywords:        []string{"managed service provider", "MSP", "IT support", "managed services", "IT outsourcing"},
		ExcludeKeywords: []string{"senior", "lead", "manager", "director"},
		Locations:       []string{"remote", "usa", "anywhere"},
	},
	"data_science": {
		Keywords:        []string{"data scientist", "machine learning", "AI", "Python", "pandas", "analytics"},
		ExcludeKeywords: []string{"senior", "lead", "principal", "10+ years"},
		Locations:       []string{"remote", "usa", "anywhere"},
	},
	"devops": {
		Keywords:        []string{"DevOps", "AWS", "Azure", "Kubernetes", "Docker", "CI/CD"},
		ExcludeKeywords: []string{"senior", "lead", "architect", "5+ years"},
		Locations:       []string{"remote", "usa", "anywhere"},
	},
	"remote_only": {
		Keywords:        []string{"remote", "work from home", "distributed team", "virtual"},
		ExcludeKeywords: []string{"hybrid", "onsite", "on-site", "relocate"},
		Locations:       []string{"remote", "virtual", "anywhere"},
	},
}

var roleTerms = map[string][]string{
	"developer":  {"developer", "programmer", "coder", "software engineer"},
	"data":       {"data scientist", "data analyst", "data engineer", "machine learning"},
	"devops":     {"devops", "sre", "site reliability", "infrastructure"},
	"design":     {"designer", "ux", "ui", "user experience"},
	"support":    {"support", "help desk", "service desk", "technical support"},
	"qa":         {"qa", "quality assurance", "tester", "quality engineer"},
	"security":   {"security", "cybersecurity", "infosec"},
	"web":        {"web developer", "frontend", "front-end", "backend", "back-end", "full-stack"},
	"mobile":     {"mobile", "android", "ios", "flutter", "react native"},
	"cloud":      {"cloud", "aws", "azure", "gcp"},
	"msp":        {"msp", "managed service", "it service", "it support"},
	"data entry": {"data entry", "data input", "typing", "transcription"},
}

var technologyTerms = []string{
	"python", "javascript", "java", "typescript", "php", "ruby", "go", "rust",
	"html", "css", "react", "angular", "vue", "jquery", "bootstrap",
	"node", "django", "flask", "spring", "laravel", "rails",
	"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch",
	"docker", "kubernetes", "terraform", "ansible", "jenkins",
	"wordpress", "shopify", "webflow",
}

var locationTerms = []string{
	"remote", "work from home", "wfh", "virtual", "telecommute",
	"usa", "united states", "uk", "united kingdom", "canada", "australia", "europe",
	"new york", "san francisco", "los angeles", "chicago", "boston",
	"seattle", "austin", "denver", "london", "berlin", "toronto",
}

var defaultExcludes = []string{
	"senior", "lead", "principal", "architect", "5+ years", "7+ years", "10+ years",
}

// ExpandQuery turns a free-text search query into concrete keyword and
// location filters. It is a purely local keyword expansion; no network call.
func ExpandQuery(query string) SearchParams {
	lower := strings.ToLower(strings.TrimSpace(query))

	if tmpl, ok := searchTemplates[lower]; ok {
		return tmpl
	}

	seen := make(map[string]struct{})
	var keywords []string
	add := func(kw string) {
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, terms := range roleTerms {
		for _, term := range terms {
			if strings.Contains(lower, term) {
				add(term)
			}
		}
	}
	for _, term := range technologyTerms {
		if strings.Contains(lower, term) {
			add(term)
		}
	}

	// Beginner terms unless the query asks for something more senior.
	advanced := false
	for _, term := range []string{"senior", "lead", "expert", "principal", "architect"} {
		if strings.Contains(lower, term) {
			advanced = true
			add(term)
		}
	}
	if !advanced {
		add("entry level")
		add("junior")
		add("beginner")
	}

	var locations []string
	for _, loc := range locationTerms {
		if strings.Contains(lower, loc) {
			locations = append(locations, loc)
		}
	}
	if len(locations) == 0 {
		locations = []string{"remote", "usa", "anywhere"}
	}

	if len(keywords) < 2 {
		add("job")
		add("career")
	}
	sort.Strings(keywords)

	excludes := defaultExcludes
	if advanced {
		excludes = []string{}
	}

	return SearchParams{
		Keywords:        keywords,
		ExcludeKeywords: excludes,
		Locations:       locations,
	}
}

// maxSearchTerms caps how many board queries an expanded search issues.
const maxSearchTerms = 5

// Apply overrides the config's filters with the expanded query. Keywords
// double as the search terms the boards are asked, and locations feed the
// per-board location parameters and the Craigslist city list.
func (p SearchParams) Apply(cfg *Config) {
	if len(p.Keywords) > 0 {
		cfg.Keywords = p.Keywords
		terms := p.Keywords
		if len(terms) > maxSearchTerms {
			terms = terms[:maxSearchTerms]
		}
		cfg.SearchTerms = terms
	}
	if p.ExcludeKeywords != nil {
		cfg.ExcludeKeywords = p.ExcludeKeywords
	}
	if len(p.Locations) > 0 {
		cfg.Locations = p.Locations
	}
}
