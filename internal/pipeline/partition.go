package pipeline

import (
	"sort"
	"strings"

	"github.com/law-makers/nepafeed/pkg/models"
)

// StateSeparator joins multiple states in Record.State.
const StateSeparator = ", "

// Partition groups records by state label. A record listing several states
// lands once in each; records without a state land nowhere.
func Partition(records []models.Record) map[string][]models.Record {
	parts := make(map[string][]models.Record)
	for _, r := range records {
		for _, state := range States(r) {
			parts[state] = append(parts[state], r)
		}
	}
	return parts
}

// States returns the distinct, trimmed state tokens of r in order.
func States(r models.Record) []string {
	if r.State == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.Split(r.State, StateSeparator) {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Labels returns the partition keys sorted.
func Labels(parts map[string][]models.Record) []string {
	labels := make([]string, 0, len(parts))
	for l := range parts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
