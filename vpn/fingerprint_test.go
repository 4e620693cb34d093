package vpn

import (
	"strings"
	"testing"
)

func TestGenerateFingerprintFields(t *testing.T) {
	fp := GenerateFingerprint()

	if len(fp.ID) != 16 {
		t.Errorf("ID length = %d, want 16", len(fp.ID))
	}
	if !strings.Contains(fp.ScreenResolution, "x") {
		t.Errorf("bad resolution %q", fp.ScreenResolution)
	}
	if fp.ColorDepth != 24 {
		t.Errorf("color depth = %d, want 24", fp.ColorDepth)
	}
	if len(fp.CanvasHash) != 32 {
		t.Errorf("canvas hash length = %d, want 32", len(fp.CanvasHash))
	}
	if len(fp.AudioHash) != 40 {
		t.Errorf("audio hash length = %d, want 40", len(fp.AudioHash))
	}
	if fp.FontCount < 40 || fp.FontCount >= 120 {
		t.Errorf("font count %d out of range", fp.FontCount)
	}
}

func TestGenerateFingerprintUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		fp := GenerateFingerprint()
		if seen[fp.ID] {
			t.Fatalf("duplicate fingerprint ID %s", fp.ID)
		}
		seen[fp.ID] = true
	}
}

func TestHeadersForChrome(t *testing.T) {
	fp := Fingerprint{Language: "en-GB", Platform: "MacIntel"}
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	h := Headers(ua, fp)

	if got := h.Get("User-Agent"); got != ua {
		t.Errorf("User-Agent = %q", got)
	}
	if got := h.Get("Accept-Language"); !strings.HasPrefix(got, "en-GB") {
		t.Errorf("Accept-Language = %q", got)
	}
	if h.Get("Sec-CH-UA") == "" {
		t.Error("Chrome agent missing client hint headers")
	}
	if got := h.Get("Sec-CH-UA-Platform"); got != `"macOS"` {
		t.Errorf("Sec-CH-UA-Platform = %q", got)
	}
}

func TestHeadersForFirefoxOmitClientHints(t *testing.T) {
	fp := Fingerprint{Language: "en-US", Platform: "Win32"}
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0"

	h := Headers(ua, fp)

	if h.Get("Sec-CH-UA") != "" {
		t.Error("Firefox agent should not carry client hint headers")
	}
	if h.Get("Upgrade-Insecure-Requests") != "1" {
		t.Error("missing Upgrade-Insecure-Requests")
	}
}
