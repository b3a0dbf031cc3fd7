package normalize

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/law-makers/nepafeed/pkg/models"
)

const base = "https://eplanning.blm.gov"

func decodeRows(t *testing.T, body string) []map[string]any {
	t.Helper()
	payload, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return Rows(payload)
}

func TestNormalize_FullRow(t *testing.T) {
	rows := decodeRows(t, `[{
		"projectId": 100,
		"projectName": " Gemini Solar ",
		"state": "NV",
		"leadOfficeName": "Las Vegas Field Office",
		"nepaType": "EIS",
		"status": "In Progress"
	}]`)

	got := New(base).NormalizeAll(rows)
	want := []models.Record{{
		ID:         "100",
		Title:      "Gemini Solar",
		URL:        "https://eplanning.blm.gov/eplanning-ui/project/100/510",
		State:      "NV",
		Office:     "Las Vegas Field Office",
		NEPAType:   "EIS",
		NEPAStatus: "In Progress",
	}}

	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.Record{}, "Raw")); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if got[0].Raw == nil {
		t.Error("expected raw upstream object to be retained")
	}
}

func TestNormalize_IdentityOrder(t *testing.T) {
	n := New(base)
	rec := n.Normalize(map[string]any{
		"nepaNumber": "DOI-BLM-NV-0001",
		"documentId": "doc-9",
		"id":         nil,
	})
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.ID != "doc-9" {
		t.Errorf("expected documentId to win over nepaNumber, got %q", rec.ID)
	}
	if rec.Title != "BLM Project doc-9" {
		t.Errorf("expected synthesized title, got %q", rec.Title)
	}
	if rec.URL != base+"/eplanning-ui/project/doc-9/510" {
		t.Errorf("unexpected synthesized URL %q", rec.URL)
	}
}

func TestNormalize_URLPrefersProjectID(t *testing.T) {
	rec := New(base).Normalize(map[string]any{"id": "nepa-1", "projectId": "55"})
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.ID != "nepa-1" {
		t.Errorf("expected id field to win identity, got %q", rec.ID)
	}
	if rec.URL != base+"/eplanning-ui/project/55/510" {
		t.Errorf("expected projectId link, got %q", rec.URL)
	}
}

func TestNormalize_ExplicitURL(t *testing.T) {
	n := New(base)

	rec := n.Normalize(map[string]any{"id": "1", "url": "https://example.gov/p/1"})
	if rec == nil || rec.URL != "https://example.gov/p/1" {
		t.Fatalf("expected explicit URL, got %+v", rec)
	}

	rec = n.Normalize(map[string]any{"id": "2", "url": "/eplanning-ui/project/2/510"})
	if rec == nil || rec.URL != base+"/eplanning-ui/project/2/510" {
		t.Fatalf("expected relative URL resolved against base, got %+v", rec)
	}
}

func TestNormalize_MissingIdentityDropped(t *testing.T) {
	n := New(base)
	cases := []map[string]any{
		{"url": "https://eplanning.blm.gov/eplanning-ui/project/9/510", "title": "No id"},
		{"id": "   "},
		{"id": nil, "projectId": ""},
		{"id": map[string]any{"nested": 1}},
		{"id": "", "projectId": "7"},
		{"id": "   ", "projectId": "7"},
		{"id": false, "projectId": "7"},
		{},
		nil,
	}
	for i, obj := range cases {
		if rec := n.Normalize(obj); rec != nil {
			t.Errorf("case %d: expected nil record, got %+v", i, rec)
		}
	}
}

func TestNormalize_States(t *testing.T) {
	n := New(base)

	tests := []struct {
		name string
		obj  map[string]any
		want string
	}{
		{"single", map[string]any{"id": "1", "state": "NV"}, "NV"},
		{"list", map[string]any{"id": "1", "states": []any{"NV", "", nil, " UT "}}, "NV, UT"},
		{"state wins", map[string]any{"id": "1", "state": "AZ", "states": []any{"NV"}}, "AZ"},
		{"empty state falls to list", map[string]any{"id": "1", "state": "", "states": []any{"CA"}}, "CA"},
		{"none", map[string]any{"id": "1", "states": []any{}}, ""},
		{"falsy entries", map[string]any{"id": "1", "states": []any{json.Number("0"), float64(0), false, "AZ", json.Number("7")}}, "AZ, 7"},
		{"zero state", map[string]any{"id": "1", "state": json.Number("0"), "states": []any{"NM"}}, "NM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := n.Normalize(tt.obj)
			if rec == nil {
				t.Fatal("expected record")
			}
			if rec.State != tt.want {
				t.Errorf("expected state %q, got %q", tt.want, rec.State)
			}
		})
	}
}

func TestNormalize_AlternateMetadataFields(t *testing.T) {
	rec := New(base).Normalize(map[string]any{
		"projectID":        "77",
		"name":             "Trail Reroute",
		"fieldOffice":      "Moab",
		"nepaDocumentType": "EA",
		"projectStatus":    "Completed",
	})
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.Title != "Trail Reroute" || rec.Office != "Moab" || rec.NEPAType != "EA" || rec.NEPAStatus != "Completed" {
		t.Errorf("unexpected metadata: %+v", rec)
	}
}

func TestRows_PayloadShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare list", `[{"id":1},{"id":2}]`, 2},
		{"items", `{"items":[{"id":1}]}`, 1},
		{"content", `{"content":[{"id":1},{"id":2},{"id":3}]}`, 3},
		{"results before data", `{"results":[{"id":1}],"data":[{"id":2},{"id":3}]}`, 1},
		{"non-list key skipped", `{"items":{"id":1},"data":[{"id":2}]}`, 1},
		{"unknown shape", `{"total":0}`, 0},
		{"scalar", `"nothing"`, 0},
		{"non-object rows", `[1,"two",{"id":3}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(decodeRows(t, tt.body)); got != tt.want {
				t.Errorf("expected %d rows, got %d", tt.want, got)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode([]byte(`{"items": [`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
