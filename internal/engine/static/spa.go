package static

import (
	"strings"
)

var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"Angular", []string{"ng-version", "ng-app", "<app-root"}},
	{"React", []string{"data-reactroot", "__next_data__", "_react"}},
	{"Vue", []string{"data-v-app", "__nuxt"}},
}

// DetectJavaScriptFramework names the client-side framework a page shell was
// built with, or "Unknown".
func DetectJavaScriptFramework(html string) string {
	html = strings.ToLower(html)
	for _, f := range frameworkMarkers {
		for _, m := range f.markers {
			if strings.Contains(html, m) {
				return f.name
			}
		}
	}
	return "Unknown"
}

// NeedsJavaScript reports whether a page that yielded no project links is a
// client-rendered shell whose results only exist after scripts run.
func NeedsJavaScript(html string, scriptCount int) bool {
	if scriptCount == 0 {
		return false
	}
	if DetectJavaScriptFramework(html) != "Unknown" {
		return true
	}
	// Minimal markup plus scripts is the usual SPA shape.
	return strings.Count(strings.ToLower(html), "<div") < 3
}
