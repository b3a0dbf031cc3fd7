package headers

import (
	"strings"
)

// ParseHeaders converts repeated -H values ("Key: Value") into a map applied
// to every upstream request. Entries without a colon or key are ignored.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		m[key] = strings.TrimSpace(value)
	}
	return m
}
