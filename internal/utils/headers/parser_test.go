package headers

import "testing"

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders([]string{"X-Api-Key: abc", "Accept-Language:en-US", "broken"})
	if h["X-Api-Key"] != "abc" {
		t.Errorf("expected X-Api-Key=abc, got %q", h["X-Api-Key"])
	}
	if h["Accept-Language"] != "en-US" {
		t.Errorf("expected Accept-Language=en-US, got %q", h["Accept-Language"])
	}
	if len(h) != 2 {
		t.Errorf("expected 2 headers, got %d", len(h))
	}
}
