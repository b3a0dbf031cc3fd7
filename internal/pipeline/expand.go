// Package pipeline turns a search plan into one deduplicated record set.
package pipeline

import (
	"strings"

	urlutil "github.com/law-makers/nepafeed/internal/utils/url"
	"github.com/law-makers/nepafeed/pkg/models"
)

// filterParams are the query-string keys a search URL may carry its filter under.
var filterParams = []string{"filter", "searchFilter", "q"}

// Plan is everything one run searches for, in configuration order.
type Plan struct {
	Queries  []models.Query            `yaml:"queries" json:"queries"`
	States   []string                  `yaml:"states" json:"states"`
	Searches []models.SearchDefinition `yaml:"searches" json:"searches"`
}

// Terms expands the plan: every query's terms first, then one term per
// usable search definition.
func (p Plan) Terms() []models.SearchTerm {
	var terms []models.SearchTerm
	for _, q := range p.Queries {
		terms = append(terms, Expand(q, p.States)...)
	}
	for _, def := range p.Searches {
		if term, ok := ExpandSearch(def); ok {
			terms = append(terms, term)
		}
	}
	return terms
}

// Expand turns a query into concrete search terms. A per-state query with a
// configured state list yields one term per state; anything else yields the
// search text alone. Blank search text yields nothing.
func Expand(q models.Query, states []string) []models.SearchTerm {
	text := strings.TrimSpace(q.SearchText)
	if text == "" {
		return nil
	}

	if !q.PerState || len(states) == 0 {
		return []models.SearchTerm{{Name: text, Text: text}}
	}

	terms := make([]models.SearchTerm, 0, len(states))
	for _, state := range states {
		t := strings.TrimSpace(text + " " + state)
		terms = append(terms, models.SearchTerm{Name: t, Text: t})
	}
	return terms
}

// ExpandSearch resolves a structured search definition to a filter term.
// The explicit filter wins over one embedded in the definition's URL.
func ExpandSearch(def models.SearchDefinition) (models.SearchTerm, bool) {
	filter := strings.TrimSpace(def.Filter)
	if filter == "" && def.URL != "" {
		filter, _ = urlutil.QueryParam(def.URL, filterParams...)
		filter = strings.TrimSpace(filter)
	}
	if filter == "" {
		return models.SearchTerm{}, false
	}

	name := strings.TrimSpace(def.Name)
	if name == "" {
		name = filter
	}
	return models.SearchTerm{Name: name, Filter: filter}, true
}
