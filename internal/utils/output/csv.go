package output

import (
	"bytes"
	"encoding/csv"

	"github.com/law-makers/nepafeed/pkg/models"
)

var csvHeader = []string{"id", "title", "url", "state", "office", "nepaType", "nepaStatus"}

// SaveCSV writes the merged record set to path, one row per record.
func SaveCSV(records []models.Record, path string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.ID, r.Title, r.URL, r.State, r.Office, r.NEPAType, r.NEPAStatus}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	return WriteFile(path, buf.Bytes())
}
