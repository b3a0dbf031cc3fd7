package output

import (
	"encoding/json"
	"time"
)

// Summary describes one completed run.
type Summary struct {
	RunID       string         `json:"runId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Count       int            `json:"count"`
	Terms       int            `json:"terms"`
	FailedTerms int            `json:"failedTerms"`
	Duplicates  int            `json:"duplicates"`
	States      map[string]int `json:"states"`
	Files       []string       `json:"files"`
}

// SaveSummary writes s as indented JSON to path.
func SaveSummary(s *Summary, path string) error {
	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return WriteFile(path, append(content, '\n'))
}
