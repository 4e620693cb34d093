package vpn

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
)

// Fingerprint is a synthetic browser identity. Hashes are random but
// stable per fingerprint so a session presents consistently.
type Fingerprint struct {
	ID               string `json:"id"`
	ScreenResolution string `json:"screen_resolution"`
	ColorDepth       int    `json:"color_depth"`
	Platform         string `json:"platform"`
	Language         string `json:"language"`
	TimezoneOffset   int    `json:"timezone_offset"`
	WebGLVendor      string `json:"webgl_vendor"`
	WebGLRenderer    string `json:"webgl_renderer"`
	CanvasHash       string `json:"canvas_hash"`
	AudioHash        string `json:"audio_hash"`
	FontCount        int    `json:"font_count"`
}

var (
	screenResolutions = []string{"1920x1080", "2560x1440", "1366x768", "1536x864", "1440x900", "3840x2160"}
	platforms         = []string{"Win32", "MacIntel", "Linux x86_64"}
	languages         = []string{"en-US", "en-GB", "en-CA", "en-AU"}
	timezoneOffsets   = []int{-480, -420, -360, -300, -240, 0, 60}
	webglVendors      = []string{"Google Inc. (NVIDIA)", "Google Inc. (Intel)", "Google Inc. (AMD)", "Apple Inc."}
	webglRenderers    = []string{
		"ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		"ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		"ANGLE (AMD, AMD Radeon RX 6600 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		"Apple M2",
	}
)

// GenerateFingerprint builds a randomized but internally consistent
// fingerprint profile.
func GenerateFingerprint() Fingerprint {
	seed := fmt.Sprintf("%d-%d", rand.Int63(), rand.Int63())
	fp := Fingerprint{
		ScreenResolution: screenResolutions[rand.Intn(len(screenResolutions))],
		ColorDepth:       24,
		Platform:         platforms[rand.Intn(len(platforms))],
		Language:         languages[rand.Intn(len(languages))],
		TimezoneOffset:   timezoneOffsets[rand.Intn(len(timezoneOffsets))],
		WebGLVendor:      webglVendors[rand.Intn(len(webglVendors))],
		WebGLRenderer:    webglRenderers[rand.Intn(len(webglRenderers))],
		CanvasHash:       fmt.Sprintf("%x", md5.Sum([]byte("canvas-"+seed))),
		AudioHash:        fmt.Sprintf("%x", sha1.Sum([]byte("audio-"+seed))),
		FontCount:        40 + rand.Intn(80),
	}
	sum := sha256.Sum256([]byte(fp.ScreenResolution + fp.Platform + fp.CanvasHash))
	fp.ID = fmt.Sprintf("%x", sum)[:16]
	return fp
}

// Headers builds the request header set for a user agent and fingerprint.
// Chrome-family agents additionally get client hint headers.
func Headers(userAgent string, fp Fingerprint) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", fp.Language+",en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")

	if strings.Contains(userAgent, "Chrome") {
		h.Set("Sec-CH-UA", `"Chromium";v="123", "Google Chrome";v="123", "Not-A.Brand";v="99"`)
		h.Set("Sec-CH-UA-Mobile", "?0")
		h.Set("Sec-CH-UA-Platform", chPlatform(fp.Platform))
	}
	return h
}

func chPlatform(platform string) string {
	switch platform {
	case "Win32":
		return `"Windows"`
	case "MacIntel":
		return `"macOS"`
	default:
		return `"Linux"`
	}
}
