package feed

import (
	"strings"
	"unicode"

	"github.com/law-makers/nepafeed/pkg/models"
)

// FileStem derives a feed file name from a state label: the label's ASCII
// letters, uppercased. It returns "" when the label has none.
func FileStem(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// GroupByStem folds state partitions onto their file stems. Labels that map
// to the same stem share one feed; its records are deduplicated by id and
// kept in the order they appear in records. Labels without a stem are dropped.
// Stems are returned in the order of their first label.
func GroupByStem(parts map[string][]models.Record, labels []string, records []models.Record) (map[string][]models.Record, []string) {
	members := make(map[string]map[string]bool)
	var stems []string
	for _, label := range labels {
		stem := FileStem(label)
		if stem == "" {
			continue
		}
		if _, ok := members[stem]; !ok {
			members[stem] = make(map[string]bool)
			stems = append(stems, stem)
		}
		for _, r := range parts[label] {
			members[stem][r.ID] = true
		}
	}

	grouped := make(map[string][]models.Record, len(stems))
	for _, stem := range stems {
		ids := members[stem]
		for _, r := range records {
			if ids[r.ID] {
				grouped[stem] = append(grouped[stem], r)
				delete(ids, r.ID)
			}
		}
	}
	return grouped, stems
}
