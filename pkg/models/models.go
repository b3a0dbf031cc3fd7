package models

import "strings"

// Record is one normalized NEPA project entry.
//
// Optional attributes use the empty string for "absent"; they are never
// rendered when empty.
type Record struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	URL        string         `json:"url"`
	State      string         `json:"state,omitempty"`
	Office     string         `json:"office,omitempty"`
	NEPAType   string         `json:"nepaType,omitempty"`
	NEPAStatus string         `json:"nepaStatus,omitempty"`
	Raw        map[string]any `json:"-"`
}

// Valid reports whether the record can be emitted.
func (r Record) Valid() bool {
	return r.ID != "" && r.URL != ""
}

// Query is one configured search unit from the plan file.
type Query struct {
	SearchText string `yaml:"searchText" json:"searchText"`
	PerState   bool   `yaml:"perState" json:"perState"`
}

// SearchDefinition is a pre-built structured search. The filter is given
// directly or embedded in the query string of URL.
type SearchDefinition struct {
	Name   string `yaml:"name" json:"name"`
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
	URL    string `yaml:"url,omitempty" json:"url,omitempty"`
}

// SearchTerm is one concrete submission to the upstream search surface.
type SearchTerm struct {
	Name   string
	Text   string
	Filter string
}

// String returns the label used in logs.
func (t SearchTerm) String() string {
	if t.Text != "" {
		return t.Text
	}
	return t.Name
}

// Key identifies the term for caching.
func (t SearchTerm) Key() string {
	return strings.Join([]string{t.Text, t.Filter}, "\x00")
}

// RetrievalMode selects which rungs of the retrieval ladder are used.
type RetrievalMode string

const (
	ModeAuto    RetrievalMode = "auto"
	ModeAPI     RetrievalMode = "api"
	ModeStatic  RetrievalMode = "static"
	ModeBrowser RetrievalMode = "browser"
)
