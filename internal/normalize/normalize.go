// Package normalize maps loosely shaped upstream search rows onto models.Record.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	urlutil "github.com/law-makers/nepafeed/internal/utils/url"
	"github.com/law-makers/nepafeed/pkg/models"
)

// Normalizer converts upstream objects into records. BaseURL is the scheme
// and host used for synthesized and relative project links.
type Normalizer struct {
	BaseURL string
}

// New creates a Normalizer for the given upstream base URL.
func New(baseURL string) *Normalizer {
	return &Normalizer{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Decode parses a JSON body keeping numbers as json.Number so identifiers
// like 100 survive as "100".
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Rows locates the row list inside a decoded payload: the payload itself when
// it is a list, else the first of RowFields holding a list. Non-object rows
// are skipped.
func Rows(payload any) []map[string]any {
	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range RowFields {
			if l, ok := v[key].([]any); ok {
				list = l
				break
			}
		}
	}

	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, obj)
		}
	}
	return rows
}

// NormalizeAll normalizes every row, dropping invalid ones.
func (n *Normalizer) NormalizeAll(rows []map[string]any) []models.Record {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		if rec := n.Normalize(row); rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

// Normalize returns nil when the object has no usable identity or link.
func (n *Normalizer) Normalize(obj map[string]any) *models.Record {
	if obj == nil {
		return nil
	}

	id := resolveID(obj)
	if id == "" {
		return nil
	}

	rec := &models.Record{
		ID:  id,
		Raw: obj,
	}

	rec.Title, _ = FirstPresent(obj, TitleFields)
	if rec.Title == "" {
		rec.Title = FallbackTitle(id)
	}

	rec.State = resolveStates(obj)
	rec.Office, _ = FirstPresent(obj, OfficeFields)
	rec.NEPAType, _ = FirstPresent(obj, TypeFields)
	rec.NEPAStatus, _ = FirstPresent(obj, StatusFields)
	rec.URL = n.resolveURL(obj, id)

	if !rec.Valid() {
		return nil
	}
	return rec
}

// FallbackTitle is used when the upstream provides no title-like field.
func FallbackTitle(id string) string {
	return "BLM Project " + id
}

// ProjectURL synthesizes the deep link for a project id.
func (n *Normalizer) ProjectURL(id string) string {
	if id == "" {
		return ""
	}
	return n.BaseURL + fmt.Sprintf(ProjectPath, id)
}

func (n *Normalizer) resolveURL(obj map[string]any, id string) string {
	if u, ok := FirstPresent(obj, URLFields); ok {
		return urlutil.ResolveURL(n.BaseURL+"/", u)
	}
	if pid, ok := FirstPresent(obj, URLIDFields); ok {
		return n.ProjectURL(pid)
	}
	return n.ProjectURL(id)
}

func resolveStates(obj map[string]any) string {
	var states []string
	if v, ok := obj[StateField]; ok && v != nil {
		states = scalars(v)
	}
	if len(states) == 0 {
		if v, ok := obj[StatesField]; ok && v != nil {
			states = scalars(v)
		}
	}
	return strings.Join(states, ", ")
}

// resolveID stops at the first identity key holding a non-null value, even
// when that value coerces to empty; the record is then dropped rather than
// picking up a later alias.
func resolveID(obj map[string]any) string {
	for _, key := range IDFields {
		if v, ok := obj[key]; ok && v != nil {
			s, _ := Coerce(v)
			return s
		}
	}
	return ""
}

// scalars flattens a scalar or list into trimmed strings, dropping falsy
// entries (null, false, empty, zero).
func scalars(v any) []string {
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	var out []string
	for _, item := range list {
		if isZeroNumber(item) {
			continue
		}
		if s, ok := Coerce(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func isZeroNumber(v any) bool {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	}
	return false
}

// FirstPresent returns the first key whose value coerces to a non-empty string.
func FirstPresent(obj map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := Coerce(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Coerce turns a JSON scalar into a trimmed string. Objects, lists, nulls,
// false and empty strings are not present.
func Coerce(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		if !t {
			return "", false
		}
		s = "true"
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
