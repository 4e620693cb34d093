// Package vpn wraps outbound HTTP with proxy rotation, synthetic browser
// fingerprints, response caching, and commercial-proxy fallback.
package vpn

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config is the proxy/session state persisted to vpn_config.json. All
// mutation happens through Manager, which holds the lock.
type Config struct {
	Proxies      []string             `json:"proxies"` // empty string = direct connection
	UserAgents   []string             `json:"user_agents"`
	Fingerprints FingerprintSettings  `json:"browser_fingerprints"`
	Rotation     RotationSettings     `json:"rotation_settings"`
	Sites        map[string]SiteRules `json:"site_settings"`
	Services     ProxyServices        `json:"proxy_services"`
	Licensing    License              `json:"licensing"`

	CurrentProxyIndex     int            `json:"current_proxy_index"`
	CurrentUserAgentIndex int            `json:"current_user_agent_index"`
	SiteRequestCounts     map[string]int `json:"site_request_counts"`
	TotalRequestCount     int            `json:"total_request_count"`
}

// FingerprintSettings controls synthetic browser fingerprint rotation.
type FingerprintSettings struct {
	Enabled      bool          `json:"enabled"`
	Fingerprints []Fingerprint `json:"fingerprints"`
	CurrentIndex int           `json:"current_fingerprint_index"`
}

// RotationSettings tunes delays, retries, and rotation triggers.
// Delays are in seconds to keep the JSON blob human-editable.
type RotationSettings struct {
	DelayMinSec             float64 `json:"delay_min_seconds"`
	DelayMaxSec             float64 `json:"delay_max_seconds"`
	RetryDelayMinSec        float64 `json:"retry_delay_min_seconds"`
	RetryDelayMaxSec        float64 `json:"retry_delay_max_seconds"`
	MaxRetries              int     `json:"max_retries"`
	CacheExpiryHours        int     `json:"cache_expiry_hours"`
	AutoRotateOnBlock       bool    `json:"auto_rotate_on_block"`
	RotateIPWithFingerprint bool    `json:"rotate_ip_with_fingerprint"`
	FingerprintEveryN       int     `json:"fingerprint_rotation_frequency"`
}

// SiteRules are per-domain scraping rules.
type SiteRules struct {
	HighScrutiny          bool    `json:"high_scrutiny"`
	ExtraDelaySec         float64 `json:"extra_delay"`
	MaxRequestsPerSession int     `json:"max_requests_per_session"`
}

// DefaultConfig mirrors the shipped vpn_config.json defaults.
func DefaultConfig() *Config {
	return &Config{
		Proxies: []string{
			"", // direct connection
			"socks5://127.0.0.1:8080",
			"socks5://127.0.0.1:8081",
		},
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.4 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:123.0) Gecko/20100101 Firefox/123.0",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		},
		Fingerprints: FingerprintSettings{Enabled: true},
		Rotation: RotationSettings{
			DelayMinSec:             2,
			DelayMaxSec:             7,
			RetryDelayMinSec:        10,
			RetryDelayMaxSec:        30,
			MaxRetries:              5,
			CacheExpiryHours:        24,
			AutoRotateOnBlock:       true,
			RotateIPWithFingerprint: true,
			FingerprintEveryN:       10,
		},
		Sites: map[string]SiteRules{
			"indeed.com":     {HighScrutiny: true, ExtraDelaySec: 2, MaxRequestsPerSession: 10},
			"remoteok.com":   {HighScrutiny: true, ExtraDelaySec: 1, MaxRequestsPerSession: 5},
			"linkedin.com":   {HighScrutiny: true, ExtraDelaySec: 3, MaxRequestsPerSession: 8},
			"freelancer.com": {HighScrutiny: false, ExtraDelaySec: 0, MaxRequestsPerSession: 20},
			"craigslist.org": {HighScrutiny: false, ExtraDelaySec: 1, MaxRequestsPerSession: 15},
		},
		Services:          defaultProxyServices(),
		Licensing:         License{EnabledFeatures: []string{"basic_scraping"}},
		SiteRequestCounts: map[string]int{},
	}
}

// LoadConfig reads the config blob, filling gaps with defaults and
// generating an initial fingerprint pool if none exists. A missing file
// produces a fresh default config persisted to path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse vpn config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through, write defaults below
	default:
		return nil, fmt.Errorf("read vpn config %s: %w", path, err)
	}

	if cfg.SiteRequestCounts == nil {
		cfg.SiteRequestCounts = map[string]int{}
	}
	if len(cfg.Proxies) == 0 {
		cfg.Proxies = []string{""}
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultConfig().UserAgents
	}
	if len(cfg.Fingerprints.Fingerprints) == 0 {
		for i := 0; i < 5; i++ {
			cfg.Fingerprints.Fingerprints = append(cfg.Fingerprints.Fingerprints, GenerateFingerprint())
		}
		cfg.Fingerprints.CurrentIndex = 0
	}
	if cfg.Rotation.MaxRetries <= 0 {
		cfg.Rotation.MaxRetries = DefaultConfig().Rotation.MaxRetries
	}
	if cfg.Rotation.CacheExpiryHours <= 0 {
		cfg.Rotation.CacheExpiryHours = DefaultConfig().Rotation.CacheExpiryHours
	}
	if cfg.Rotation.FingerprintEveryN <= 0 {
		cfg.Rotation.FingerprintEveryN = DefaultConfig().Rotation.FingerprintEveryN
	}
	// Hand-edited blobs can carry negative indices, which would survive the
	// modulo lookups since Go's % keeps the sign.
	if cfg.CurrentProxyIndex < 0 {
		cfg.CurrentProxyIndex = 0
	}
	if cfg.CurrentUserAgentIndex < 0 {
		cfg.CurrentUserAgentIndex = 0
	}
	if cfg.Fingerprints.CurrentIndex < 0 {
		cfg.Fingerprints.CurrentIndex = 0
	}

	if path != "" {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Save writes the config blob back to disk.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vpn config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vpn config %s: %w", path, err)
	}
	return nil
}

// rulesFor returns the rules for a URL's domain, or permissive defaults.
func (c *Config) rulesFor(domain string) SiteRules {
	for site, rules := range c.Sites {
		if strings.Contains(domain, site) {
			return rules
		}
	}
	return SiteRules{MaxRequestsPerSession: 20}
}

// Domain extracts the registrable domain from a URL (www.indeed.com ->
// indeed.com). Errors collapse to the raw input so lookups still work.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	host := parsed.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		host = strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}
