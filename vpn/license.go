package vpn

import "time"

// License gates commercial proxy usage behind a local key check.
type License struct {
	Key             string    `json:"license_key,omitempty"`
	ValidUntil      time.Time `json:"valid_until,omitempty"`
	EnabledFeatures []string  `json:"enabled_features"`
	LastVerified    time.Time `json:"last_verified,omitempty"`
}

// Feature names a license can grant.
const (
	FeatureBasicScraping     = "basic_scraping"
	FeatureCommercialProxies = "commercial_proxies"
	FeatureAdvancedScraping  = "advanced_scraping"
	FeatureGeneralScraping   = "general_scraping"
)

// knownKeys maps license keys to the features they unlock. Verification is
// offline; keys ship with the distribution.
var knownKeys = map[string][]string{
	"TEST-GRAVY-JOBS-12345": {FeatureBasicScraping, FeatureCommercialProxies, FeatureAdvancedScraping},
	"DEV-GRAVY-JOBS-ACCESS": {FeatureBasicScraping, FeatureCommercialProxies, FeatureAdvancedScraping, FeatureGeneralScraping},
}

// Verify checks the key against the local table and refreshes the feature
// set. An unknown or empty key demotes to basic scraping only.
func (l *License) Verify() bool {
	features, ok := knownKeys[l.Key]
	if !ok {
		l.EnabledFeatures = []string{FeatureBasicScraping}
		return false
	}
	l.EnabledFeatures = features
	l.ValidUntil = time.Now().AddDate(1, 0, 0)
	l.LastVerified = time.Now()
	return true
}

// HasFeature reports whether the license grants a feature.
func (l *License) HasFeature(name string) bool {
	for _, f := range l.EnabledFeatures {
		if f == name {
			return true
		}
	}
	return false
}
