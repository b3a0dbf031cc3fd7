package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/law-makers/nepafeed/internal/cache"
	"github.com/law-makers/nepafeed/pkg/models"
)

type stubStrategy struct {
	name    string
	records []models.Record
	err     error
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	s.calls++
	return s.records, s.err
}

func TestLadder_FirstSuccessWins(t *testing.T) {
	api := &stubStrategy{name: "api", records: []models.Record{{ID: "1", URL: "u"}}}
	static := &stubStrategy{name: "static"}

	records, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "solar"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
	if static.calls != 0 {
		t.Error("expected static strategy to be skipped")
	}
}

func TestLadder_FallsBackOnNotStructured(t *testing.T) {
	api := &stubStrategy{name: "api", err: NewEngineError(ErrCodeNotStructured, "text/html", ErrNotStructured)}
	static := &stubStrategy{name: "static", records: []models.Record{{ID: "42", URL: "u"}}}

	records, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "trail"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "42" {
		t.Errorf("expected static record, got %+v", records)
	}
}

func TestLadder_EmptyResultIsSuccess(t *testing.T) {
	api := &stubStrategy{name: "api", records: []models.Record{}}
	static := &stubStrategy{name: "static", records: []models.Record{{ID: "1", URL: "u"}}}

	records, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "x"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(records) != 0 || static.calls != 0 {
		t.Errorf("expected empty api result to win, got %d records, static calls %d", len(records), static.calls)
	}
}

func TestLadder_TransportErrorStopsTerm(t *testing.T) {
	api := &stubStrategy{name: "api", err: NewEngineError(ErrCodeNetworkError, "dial", ErrNetworkError)}
	static := &stubStrategy{name: "static"}

	_, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "x"})
	if !errors.Is(err, ErrNetworkError) {
		t.Fatalf("expected network error, got %v", err)
	}
	if static.calls != 0 {
		t.Error("transport failure must not fall through")
	}
}

func TestLadder_AllFallThrough(t *testing.T) {
	api := &stubStrategy{name: "api", err: NewEngineError(ErrCodeParseError, "bad json", ErrParseError)}
	static := &stubStrategy{name: "static", err: StatusError(503, "https://eplanning.blm.gov/")}

	_, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "x"})
	if err == nil {
		t.Fatal("expected error when every strategy falls through")
	}
	var sc StatusCoder
	if !errors.As(err, &sc) || sc.GetStatusCode() != 503 {
		t.Errorf("expected last error to carry status 503, got %v", err)
	}
}

func TestLadder_ScriptShellOnLastRungIsEmpty(t *testing.T) {
	api := &stubStrategy{name: "api", err: NewEngineError(ErrCodeNotStructured, "text/html", ErrNotStructured)}
	static := &stubStrategy{name: "static", err: NewEngineError(ErrCodeNeedsJavaScript, "shell", ErrNeedsJavaScript)}

	records, err := NewLadder(nil, 0, api, static).Retrieve(context.Background(), models.SearchTerm{Text: "x"})
	if err != nil {
		t.Fatalf("expected empty success, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", records)
	}
}

func TestLadder_ScriptShellFallsToBrowser(t *testing.T) {
	static := &stubStrategy{name: "static", err: NewEngineError(ErrCodeNeedsJavaScript, "shell", ErrNeedsJavaScript)}
	dynamic := &stubStrategy{name: "dynamic", records: []models.Record{{ID: "42", URL: "u"}}}

	records, err := NewLadder(nil, 0, static, dynamic).Retrieve(context.Background(), models.SearchTerm{Text: "x"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if dynamic.calls != 1 || len(records) != 1 {
		t.Errorf("expected browser rung to run, calls %d, records %d", dynamic.calls, len(records))
	}
}

func TestLadder_NoStrategies(t *testing.T) {
	if _, err := NewLadder(nil, 0).Retrieve(context.Background(), models.SearchTerm{}); !errors.Is(err, ErrNoStrategies) {
		t.Errorf("expected ErrNoStrategies, got %v", err)
	}
}

func TestLadder_CachesSuccessfulTerms(t *testing.T) {
	api := &stubStrategy{name: "api", records: []models.Record{{ID: "1", URL: "u"}}}
	ladder := NewLadder(cache.NewMemoryCache(8), 0, api)
	term := models.SearchTerm{Text: "solar NV"}

	for i := 0; i < 3; i++ {
		if _, err := ladder.Retrieve(context.Background(), term); err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
	}
	if api.calls != 1 {
		t.Errorf("expected one upstream call, got %d", api.calls)
	}
	if ladder.Name() != "Ladder[api]" {
		t.Errorf("unexpected ladder name %q", ladder.Name())
	}
}

func TestIsFallback(t *testing.T) {
	if IsFallback(errors.New("plain")) {
		t.Error("plain errors are not fallback")
	}
	if IsFallback(context.DeadlineExceeded) {
		t.Error("context errors are not fallback")
	}
	if !IsFallback(NewEngineError(ErrCodeNeedsJavaScript, "spa shell", ErrNeedsJavaScript)) {
		t.Error("needs-javascript must fall back")
	}
}
