package vpn

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// blockMarkers in a response body mean the site served a bot wall even
// with a 200 status.
var blockMarkers = []string{"captcha", "blocked", "unusual traffic", "automated"}

// Manager issues paced, fingerprinted HTTP requests with proxy rotation,
// caching, and commercial-proxy fallback. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	cfg    *Config
	path   string
	cache  *Cache
	logger *slog.Logger

	limiters  map[string]*rate.Limiter
	transport http.RoundTripper
	timeout   time.Duration

	requestCount int
	retryCount   int
	sessionID    int
}

// Options tunes Manager construction.
type Options struct {
	ConfigPath string
	CacheDir   string
	Timeout    time.Duration
	Logger     *slog.Logger
	// Transport overrides per-proxy transports when set. Used in tests.
	Transport http.RoundTripper
}

// NewManager loads (or creates) the config blob and prepares the cache.
func NewManager(opts Options) (*Manager, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg.Licensing.Verify()

	ttl := time.Duration(cfg.Rotation.CacheExpiryHours) * time.Hour
	cache, err := NewCache(opts.CacheDir, ttl)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Manager{
		cfg:       cfg,
		path:      opts.ConfigPath,
		cache:     cache,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
		transport: opts.Transport,
		timeout:   timeout,
		sessionID: rand.Intn(100000),
	}, nil
}

// Config exposes the loaded configuration for inspection.
func (m *Manager) Config() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Stats returns the number of successful requests and failed attempts
// since the manager was created.
func (m *Manager) Stats() (requests, retries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount, m.retryCount
}

// Fetch retrieves a URL with the full retry and rotation flow. params are
// appended to the query string. The returned bytes are the decoded body.
func (m *Manager) Fetch(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	target, err := withParams(rawURL, params)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	if body, ok := m.cache.Get(target); ok {
		m.logger.Debug("cache hit", "url", target)
		return body, nil
	}

	domain := Domain(target)
	m.mu.Lock()
	rules := m.cfg.rulesFor(domain)
	maxRetries := m.cfg.Rotation.MaxRetries
	m.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		m.rotateSessionIfNeeded(domain, rules)

		if err := m.pace(ctx, domain, rules, attempt); err != nil {
			return nil, err
		}

		body, err := m.request(ctx, target, nil)
		if err == nil {
			m.cache.Put(target, body)
			m.countRequest(domain)
			return body, nil
		}
		lastErr = err
		m.mu.Lock()
		m.retryCount++
		m.mu.Unlock()
		m.logger.Warn("request failed",
			"url", target,
			"attempt", attempt,
			"error_type", ErrorLabel(err),
			"error", err)

		switch err.(type) {
		case ErrBlocked, ErrRateLimited:
			m.onBlocked(domain)
			if rules.HighScrutiny {
				if body, cerr := m.fetchCommercial(ctx, target); cerr == nil {
					m.cache.Put(target, body)
					m.countRequest(domain)
					return body, nil
				}
			}
		case ErrTimeout, ErrConnection:
			m.RotateProxy()
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	// Last resorts: commercial proxies for anyone licensed, then stale cache.
	if body, err := m.fetchCommercial(ctx, target); err == nil {
		m.cache.Put(target, body)
		return body, nil
	}
	if body, ok := m.cache.GetStale(target); ok {
		m.logger.Warn("serving stale cache after exhausting retries", "url", target)
		return body, nil
	}

	return nil, ErrExhausted{URL: target, Attempts: maxRetries, Last: lastErr}
}

// request performs one GET through the current (or given) proxy.
func (m *Manager) request(ctx context.Context, target string, proxyURL *string) ([]byte, error) {
	m.mu.Lock()
	proxy := m.cfg.Proxies[m.cfg.CurrentProxyIndex%len(m.cfg.Proxies)]
	if proxyURL != nil {
		proxy = *proxyURL
	}
	ua := m.cfg.UserAgents[m.cfg.CurrentUserAgentIndex%len(m.cfg.UserAgents)]
	fp := m.currentFingerprintLocked()
	m.mu.Unlock()

	client, err := m.clientFor(proxy)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header = Headers(ua, fp)

	resp, err := client.Do(req)
	if err != nil {
		return nil, Classify(err, 0)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, Classify(err, 0)
	}

	if blocked(resp.StatusCode, body) {
		status := resp.StatusCode
		if status == http.StatusOK {
			status = http.StatusForbidden
		}
		return nil, Classify(fmt.Errorf("bot wall at %s (status %d)", target, resp.StatusCode), status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Classify(nil, resp.StatusCode)
	}
	return body, nil
}

// fetchCommercial tries each licensed commercial service in turn.
func (m *Manager) fetchCommercial(ctx context.Context, target string) ([]byte, error) {
	m.mu.Lock()
	licensed := m.cfg.Licensing.HasFeature(FeatureCommercialProxies)
	services := &m.cfg.Services
	session := m.sessionID
	m.mu.Unlock()

	if !licensed {
		return nil, fmt.Errorf("commercial proxies not licensed")
	}

	for _, p := range services.proxyProviders() {
		proxy := p.build(p.creds, session)
		m.logger.Info("trying commercial proxy", "service", p.name)
		body, err := m.request(ctx, target, &proxy)
		if err == nil {
			return body, nil
		}
		m.logger.Warn("commercial proxy failed", "service", p.name, "error", err)
	}
	for _, p := range services.apiProviders() {
		rewritten := p.build(p.creds, target)
		m.logger.Info("trying scraping API", "service", p.name)
		direct := ""
		body, err := m.request(ctx, rewritten, &direct)
		if err == nil {
			return body, nil
		}
		m.logger.Warn("scraping API failed", "service", p.name, "error", err)
	}
	return nil, fmt.Errorf("no commercial service succeeded for %s", target)
}

// pace waits out the configured inter-request delay plus any site extra
// delay, honoring the per-domain rate limiter and ctx cancellation.
func (m *Manager) pace(ctx context.Context, domain string, rules SiteRules, attempt int) error {
	m.mu.Lock()
	rot := m.cfg.Rotation
	limiter, ok := m.limiters[domain]
	if !ok {
		// Roughly one request per minimum delay, small burst.
		if rot.DelayMinSec > 0 {
			limiter = rate.NewLimiter(rate.Limit(1/rot.DelayMinSec), 2)
		} else {
			limiter = rate.NewLimiter(rate.Inf, 1)
		}
		m.limiters[domain] = limiter
	}
	m.mu.Unlock()

	var delay time.Duration
	if attempt == 1 {
		delay = randomDelay(rot.DelayMinSec, rot.DelayMaxSec)
	} else {
		delay = randomDelay(rot.RetryDelayMinSec, rot.RetryDelayMaxSec)
	}
	delay += time.Duration(rules.ExtraDelaySec * float64(time.Second))

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return limiter.Wait(ctx)
}

// onBlocked rotates identity after a block, per the rotation settings.
func (m *Manager) onBlocked(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.Rotation.AutoRotateOnBlock {
		return
	}
	m.rotateFingerprintLocked()
	if m.cfg.Rotation.RotateIPWithFingerprint {
		m.rotateProxyLocked()
	}
	m.cfg.SiteRequestCounts[domain] = 0
	m.saveLocked()
}

// rotateSessionIfNeeded rotates identity once a site's per-session
// request budget is spent.
func (m *Manager) rotateSessionIfNeeded(domain string, rules SiteRules) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rules.MaxRequestsPerSession <= 0 {
		return
	}
	if m.cfg.SiteRequestCounts[domain] < rules.MaxRequestsPerSession {
		return
	}
	m.logger.Info("session budget spent, rotating identity", "domain", domain)
	m.rotateFingerprintLocked()
	m.rotateProxyLocked()
	m.cfg.SiteRequestCounts[domain] = 0
	m.sessionID = rand.Intn(100000)
	m.saveLocked()
}

func (m *Manager) countRequest(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.SiteRequestCounts[domain]++
	m.cfg.TotalRequestCount++
	m.requestCount++
	if m.cfg.Fingerprints.Enabled &&
		m.cfg.Rotation.FingerprintEveryN > 0 &&
		m.requestCount%m.cfg.Rotation.FingerprintEveryN == 0 {
		m.rotateFingerprintLocked()
	}
	m.saveLocked()
}

// RotateProxy advances to the next proxy in the pool.
func (m *Manager) RotateProxy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateProxyLocked()
	m.saveLocked()
}

func (m *Manager) rotateProxyLocked() {
	if len(m.cfg.Proxies) == 0 {
		return
	}
	m.cfg.CurrentProxyIndex = (m.cfg.CurrentProxyIndex + 1) % len(m.cfg.Proxies)
	m.cfg.CurrentUserAgentIndex = (m.cfg.CurrentUserAgentIndex + 1) % len(m.cfg.UserAgents)
	m.logger.Debug("rotated proxy", "index", m.cfg.CurrentProxyIndex)
}

func (m *Manager) rotateFingerprintLocked() {
	fps := &m.cfg.Fingerprints
	if !fps.Enabled || len(fps.Fingerprints) == 0 {
		return
	}
	fps.CurrentIndex = (fps.CurrentIndex + 1) % len(fps.Fingerprints)
	m.logger.Debug("rotated fingerprint", "id", fps.Fingerprints[fps.CurrentIndex].ID)
}

func (m *Manager) currentFingerprintLocked() Fingerprint {
	fps := &m.cfg.Fingerprints
	if len(fps.Fingerprints) == 0 {
		return Fingerprint{Language: "en-US", Platform: "Win32"}
	}
	return fps.Fingerprints[fps.CurrentIndex%len(fps.Fingerprints)]
}

func (m *Manager) saveLocked() {
	if m.path == "" {
		return
	}
	if err := m.cfg.Save(m.path); err != nil {
		m.logger.Warn("failed to persist vpn config", "error", err)
	}
}

// clientFor builds an HTTP client for the given proxy URL. An empty proxy
// means a direct connection.
func (m *Manager) clientFor(proxy string) (*http.Client, error) {
	if m.transport != nil {
		return &http.Client{Transport: m.transport, Timeout: m.timeout}, nil
	}
	transport := &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Transport: transport, Timeout: m.timeout}, nil
}

// readBody decodes a response body, handling gzip when the server labels
// it but the transport did not transparently decompress.
func readBody(resp *http.Response) ([]byte, error) {
	reader := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// blocked reports whether a response looks like a bot wall.
func blocked(statusCode int, body []byte) bool {
	switch statusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	lower := strings.ToLower(string(body))
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			// Real pages mention captchas; only flag short bodies.
			if len(body) < 4096 {
				return true
			}
		}
	}
	return false
}

func randomDelay(minSec, maxSec float64) time.Duration {
	if maxSec <= minSec {
		return time.Duration(minSec * float64(time.Second))
	}
	sec := minSec + rand.Float64()*(maxSec-minSec)
	return time.Duration(sec * float64(time.Second))
}

func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
