package vpn

import (
	"fmt"
	"net/url"
)

// ServiceCredentials holds an account for one commercial proxy service.
type ServiceCredentials struct {
	Enabled     bool     `json:"enabled"`
	Username    string   `json:"username,omitempty"`
	Password    string   `json:"password,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
	Endpoint    string   `json:"endpoint,omitempty"`
	Port        int      `json:"port,omitempty"`
	CountryPool []string `json:"country_pool,omitempty"`
	countryIdx  int
}

// ProxyServices lists the supported commercial providers. Proxy-style
// services return a proxy URL; API-style services rewrite the target URL.
type ProxyServices struct {
	BrightData ServiceCredentials `json:"brightdata"`
	Oxylabs    ServiceCredentials `json:"oxylabs"`
	SmartProxy ServiceCredentials `json:"smartproxy"`
	ProxyMesh  ServiceCredentials `json:"proxymesh"`
	ZenRows    ServiceCredentials `json:"zenrows"`
	ScraperAPI ServiceCredentials `json:"scraperapi"`
}

func defaultProxyServices() ProxyServices {
	return ProxyServices{
		BrightData: ServiceCredentials{Endpoint: "zproxy.lum-superproxy.io", Port: 22225, CountryPool: []string{"us", "ca", "gb", "de"}},
		Oxylabs:    ServiceCredentials{Endpoint: "pr.oxylabs.io", Port: 7777, CountryPool: []string{"us", "ca", "gb"}},
		SmartProxy: ServiceCredentials{Endpoint: "gate.smartproxy.com", Port: 10000, CountryPool: []string{"us", "gb"}},
		ProxyMesh:  ServiceCredentials{Endpoint: "us-wa.proxymesh.com", Port: 31280},
		ZenRows:    ServiceCredentials{Endpoint: "https://api.zenrows.com/v1/"},
		ScraperAPI: ServiceCredentials{Endpoint: "http://api.scraperapi.com"},
	}
}

// nextCountry rotates through the service's country pool.
func (c *ServiceCredentials) nextCountry() string {
	if len(c.CountryPool) == 0 {
		return "us"
	}
	country := c.CountryPool[c.countryIdx%len(c.CountryPool)]
	c.countryIdx++
	return country
}

// proxyProvider builds proxy URLs for tunnel-style services.
type proxyProvider struct {
	name  string
	creds *ServiceCredentials
	build func(creds *ServiceCredentials, session int) string
}

// apiProvider rewrites target URLs for fetch-API-style services.
type apiProvider struct {
	name  string
	creds *ServiceCredentials
	build func(creds *ServiceCredentials, target string) string
}

// proxyProviders returns the enabled tunnel-style providers in preference
// order. session salts sticky-session usernames.
func (s *ProxyServices) proxyProviders() []proxyProvider {
	all := []proxyProvider{
		{"brightdata", &s.BrightData, func(c *ServiceCredentials, session int) string {
			user := fmt.Sprintf("%s-country-%s-session-%d", c.Username, c.nextCountry(), session)
			return fmt.Sprintf("http://%s:%s@%s:%d", user, c.Password, c.Endpoint, c.Port)
		}},
		{"oxylabs", &s.Oxylabs, func(c *ServiceCredentials, session int) string {
			user := fmt.Sprintf("customer-%s-country-%s", c.Username, c.nextCountry())
			return fmt.Sprintf("http://%s:%s@%s:%d", user, c.Password, c.Endpoint, c.Port)
		}},
		{"smartproxy", &s.SmartProxy, func(c *ServiceCredentials, session int) string {
			return fmt.Sprintf("http://%s:%s@%s:%d", c.Username, c.Password, c.Endpoint, c.Port)
		}},
		{"proxymesh", &s.ProxyMesh, func(c *ServiceCredentials, session int) string {
			return fmt.Sprintf("http://%s:%s@%s:%d", c.Username, c.Password, c.Endpoint, c.Port)
		}},
	}

	enabled := all[:0]
	for _, p := range all {
		if p.creds.Enabled && p.creds.Username != "" {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// apiProviders returns the enabled fetch-API providers.
func (s *ProxyServices) apiProviders() []apiProvider {
	all := []apiProvider{
		{"zenrows", &s.ZenRows, func(c *ServiceCredentials, target string) string {
			q := url.Values{}
			q.Set("url", target)
			q.Set("apikey", c.APIKey)
			q.Set("js_render", "true")
			q.Set("antibot", "true")
			return c.Endpoint + "?" + q.Encode()
		}},
		{"scraperapi", &s.ScraperAPI, func(c *ServiceCredentials, target string) string {
			q := url.Values{}
			q.Set("api_key", c.APIKey)
			q.Set("url", target)
			q.Set("render", "true")
			return c.Endpoint + "?" + q.Encode()
		}},
	}

	enabled := all[:0]
	for _, p := range all {
		if p.creds.Enabled && p.creds.APIKey != "" {
			enabled = append(enabled, p)
		}
	}
	return enabled
}
