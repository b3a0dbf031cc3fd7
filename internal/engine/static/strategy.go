// Package static implements the raw-markup rung of the retrieval ladder.
package static

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/nepafeed/internal/engine"
	"github.com/law-makers/nepafeed/internal/engine/extract"
	"github.com/law-makers/nepafeed/internal/ratelimit"
	urlutil "github.com/law-makers/nepafeed/internal/utils/url"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// maxBodyBytes caps how much of a search page is read.
const maxBodyBytes = 10 << 20

// Options configures the markup strategy.
type Options struct {
	// SearchURL is the absolute URL of the upstream search page.
	SearchURL string
	// BaseURL resolves relative project links.
	BaseURL   string
	UserAgent string
	Headers   map[string]string
}

// Strategy requests the rendered search page and scrapes project anchors
// from the raw HTML with goquery.
type Strategy struct {
	client  *http.Client
	limiter ratelimit.RateLimiter
	opts    Options
}

// New creates a markup strategy with dependency injection
func New(client *http.Client, lim ratelimit.RateLimiter, opts Options) *Strategy {
	if lim == nil {
		lim = ratelimit.Unlimited{}
	}
	return &Strategy{
		client:  client,
		limiter: lim,
		opts:    opts,
	}
}

// Name returns the name of this strategy
func (s *Strategy) Name() string {
	return "StaticStrategy"
}

// PageURL builds the search page URL for a term.
func PageURL(searchURL string, term models.SearchTerm) (string, error) {
	return urlutil.WithQuery(searchURL, map[string]string{
		"searchText": term.Text,
		"filter":     term.Filter,
	})
}

// Retrieve fetches the search page for term and extracts project links.
func (s *Strategy) Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	start := time.Now()

	pageURL, err := PageURL(s.opts.SearchURL, term)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx, pageURL); err != nil {
		return nil, err
	}

	log.Debug().
		Str("url", pageURL).
		Str("strategy", s.Name()).
		Msg("Starting fetch")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}
	for key, value := range s.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "search page request failed", err).
			WithDetail("url", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, engine.StatusError(resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to read search page", err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse HTML", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	records := extract.FromDocument(doc, s.opts.BaseURL)

	if len(records) == 0 {
		scripts := doc.Find("script").Length()
		if NeedsJavaScript(string(body), scripts) {
			return nil, engine.NewEngineError(engine.ErrCodeNeedsJavaScript, "search page is a client-rendered shell", engine.ErrNeedsJavaScript).
				WithDetail("framework", DetectJavaScriptFramework(string(body))).
				WithDetail("scripts", scripts)
		}
	}

	log.Debug().
		Str("url", pageURL).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Int("records", len(records)).
		Msg("Fetch completed")

	return records, nil
}
