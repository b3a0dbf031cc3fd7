package app

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/nepafeed/internal/config"
	"github.com/law-makers/nepafeed/internal/pipeline"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/stretchr/testify/require"
)

type rssItems struct {
	Channel struct {
		Items []struct {
			Title       string  `xml:"title"`
			Link        string  `xml:"link"`
			GUID        string  `xml:"guid"`
			Description *string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

func readFeed(t *testing.T, path string) rssItems {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc rssItems
	require.NoError(t, xml.Unmarshal(raw, &doc))
	return doc
}

func testConfig(t *testing.T, baseURL string, plan pipeline.Plan) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	cfg.FeedLink = baseURL
	cfg.OutputDir = t.TempDir()
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 100
	cfg.HTTPTimeout = 5 * time.Second
	cfg.Plan = plan
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	app.now = func() time.Time { return time.Date(2024, 3, 5, 17, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { app.Close(context.Background()) })
	return app
}

func TestRun_PerStateJSON(t *testing.T) {
	rows := map[string]string{
		"solar NV": `{"items":[{"projectId":"100","projectName":"Gemini Solar","state":"NV"}]}`,
		"solar UT": `{"items":[{"projectId":"200","projectName":"Utah Sun","state":"UT"}]}`,
	}
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.DefaultAPIPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		term := r.URL.Query().Get("searchText")
		seen = append(seen, term)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, rows[term])
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL, pipeline.Plan{
		Queries: []models.Query{{SearchText: "solar", PerState: true}},
		States:  []string{"NV", "UT"},
	})
	app := newTestApp(t, cfg)

	var results []pipeline.TermResult
	summary, err := app.Run(context.Background(), func(tr pipeline.TermResult) { results = append(results, tr) })
	require.NoError(t, err)

	require.Equal(t, []string{"solar NV", "solar UT"}, seen)
	require.Len(t, results, 2)
	require.Equal(t, 2, summary.Count)
	require.Equal(t, map[string]int{"NV": 1, "UT": 1}, summary.States)
	require.NotEmpty(t, summary.RunID)

	national := readFeed(t, filepath.Join(cfg.OutputDir, "feed.xml"))
	require.Len(t, national.Channel.Items, 2)
	require.Equal(t, "100", national.Channel.Items[0].GUID)
	require.Equal(t, server.URL+"/eplanning-ui/project/100/510", national.Channel.Items[0].Link)

	nv := readFeed(t, filepath.Join(cfg.OutputDir, "by-state", "NV.xml"))
	require.Len(t, nv.Channel.Items, 1)
	require.Equal(t, "Gemini Solar", nv.Channel.Items[0].Title)

	ut := readFeed(t, filepath.Join(cfg.OutputDir, "by-state", "UT.xml"))
	require.Len(t, ut.Channel.Items, 1)
	require.Equal(t, "200", ut.Channel.Items[0].GUID)

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "summary.json"))
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.EqualValues(t, 2, onDisk["count"])
	require.Equal(t, "2024-03-05T17:04:05Z", onDisk["generatedAt"])
}

func TestRun_HTMLFallback(t *testing.T) {
	page := `<html><body><a href="/eplanning-ui/project/42/510">Desert Trail</a></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL, pipeline.Plan{Queries: []models.Query{{SearchText: "trail"}}})
	cfg.CSV = true
	app := newTestApp(t, cfg)

	summary, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count)
	require.Empty(t, summary.States)

	national := readFeed(t, filepath.Join(cfg.OutputDir, "feed.xml"))
	require.Len(t, national.Channel.Items, 1)
	item := national.Channel.Items[0]
	require.Equal(t, "42", item.GUID)
	require.Equal(t, "Desert Trail", item.Title)
	require.Nil(t, item.Description, "record without metadata must have no description")

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "by-state"))
	require.True(t, os.IsNotExist(err), "no state feeds expected")
	require.FileExists(t, filepath.Join(cfg.OutputDir, "records.csv"))
}

func TestRun_FailedTermDoesNotAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("searchText") == "broken" {
			// Drop the connection so the term fails at the transport level.
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":7,"title":"Wind","states":["NV","AZ"]}]`)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL, pipeline.Plan{Queries: []models.Query{{SearchText: "broken"}, {SearchText: "wind"}}})
	app := newTestApp(t, cfg)

	summary, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, summary.FailedTerms)
	require.Equal(t, 1, summary.Count)
	require.Equal(t, map[string]int{"AZ": 1, "NV": 1}, summary.States)
}

func TestRun_ScriptShellWithoutBrowserIsZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><app-root ng-version="17"></app-root><script src="main.js"></script></body></html>`)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL, pipeline.Plan{Queries: []models.Query{{SearchText: "nothing"}}})
	app := newTestApp(t, cfg)
	require.False(t, app.UsesBrowser())

	summary, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, summary.FailedTerms)
	require.Equal(t, 0, summary.Count)
	require.Empty(t, readFeed(t, filepath.Join(cfg.OutputDir, "feed.xml")).Channel.Items)
}

func TestRun_EmptyPlan(t *testing.T) {
	app := newTestApp(t, testConfig(t, "https://eplanning.blm.gov", pipeline.Plan{}))
	_, err := app.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyPlan)
}

func TestRun_StructuredSearchDefinition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		} else if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["filter"] != "lithium" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"projectId":"9","projectName":"Lithium Exploration","state":"NV"}]}`)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL, pipeline.Plan{Searches: []models.SearchDefinition{
		{Name: "Lithium", URL: "https://eplanning.blm.gov/eplanning-ui/search?filter=lithium"},
	}})
	app := newTestApp(t, cfg)

	summary, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count)
}

func TestStrategiesFor(t *testing.T) {
	cases := []struct {
		mode        models.RetrievalMode
		browser     bool
		want        string
		usesBrowser bool
	}{
		{models.ModeAuto, false, "Ladder[APIStrategy>StaticStrategy]", false},
		{models.ModeAuto, true, "Ladder[APIStrategy>StaticStrategy>DynamicStrategy]", true},
		{models.ModeAPI, false, "Ladder[APIStrategy]", false},
		{models.ModeStatic, true, "Ladder[StaticStrategy]", false},
		{models.ModeBrowser, false, "Ladder[DynamicStrategy]", true},
	}
	for _, tc := range cases {
		cfg := testConfig(t, "https://eplanning.blm.gov", pipeline.Plan{})
		cfg.Mode = tc.mode
		cfg.Browser = tc.browser
		app := newTestApp(t, cfg)
		require.Equal(t, tc.want, app.Retriever.Name(), "mode %s browser %v", tc.mode, tc.browser)
		require.Equal(t, tc.usesBrowser, app.UsesBrowser())
	}
}
