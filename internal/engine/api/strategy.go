// Package api implements the structured JSON search rung of the retrieval ladder.
package api

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/law-makers/nepafeed/internal/engine"
	"github.com/law-makers/nepafeed/internal/normalize"
	"github.com/law-makers/nepafeed/internal/ratelimit"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog/log"
)

// Options configures the structured search strategy.
type Options struct {
	// Endpoint is the absolute URL of the upstream search API.
	Endpoint  string
	UserAgent string
	Headers   map[string]string
}

// Strategy queries the upstream search API and normalizes its JSON rows.
type Strategy struct {
	client     *resty.Client
	limiter    ratelimit.RateLimiter
	normalizer *normalize.Normalizer
	opts       Options
}

// New creates the strategy over a shared http.Client.
func New(httpClient *http.Client, lim ratelimit.RateLimiter, n *normalize.Normalizer, opts Options) *Strategy {
	client := resty.NewWithClient(httpClient).
		SetHeader("Accept", "application/json").
		SetHeaders(opts.Headers)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if lim == nil {
		lim = ratelimit.Unlimited{}
	}

	return &Strategy{
		client:     client,
		limiter:    lim,
		normalizer: n,
		opts:       opts,
	}
}

// Name returns the name of this strategy
func (s *Strategy) Name() string {
	return "APIStrategy"
}

// Retrieve submits the term as a query string, or as a JSON body when the
// term carries a structured filter.
func (s *Strategy) Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	if err := s.limiter.Wait(ctx, s.opts.Endpoint); err != nil {
		return nil, err
	}

	log.Debug().
		Str("endpoint", s.opts.Endpoint).
		Str("term", term.String()).
		Bool("filter", term.Filter != "").
		Msg("Submitting structured search")

	req := s.client.R().SetContext(ctx)

	var (
		resp *resty.Response
		err  error
	)
	if term.Filter != "" {
		body := map[string]string{"filter": term.Filter}
		if term.Text != "" {
			body["searchText"] = term.Text
		}
		resp, err = req.
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(s.opts.Endpoint)
	} else {
		resp, err = req.
			SetQueryParam("searchText", term.Text).
			Get(s.opts.Endpoint)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "structured search request failed", err).
			WithDetail("endpoint", s.opts.Endpoint)
	}

	if resp.IsError() {
		return nil, engine.StatusError(resp.StatusCode(), s.opts.Endpoint)
	}

	contentType := resp.Header().Get("Content-Type")
	if !IsJSON(contentType) {
		return nil, engine.NewEngineError(engine.ErrCodeNotStructured, "unexpected content type", engine.ErrNotStructured).
			WithDetail("content_type", contentType)
	}

	payload, err := normalize.Decode(resp.Body())
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "malformed JSON payload", err)
	}

	rows := normalize.Rows(payload)
	records := s.normalizer.NormalizeAll(rows)

	log.Debug().
		Str("term", term.String()).
		Int("status", resp.StatusCode()).
		Int("rows", len(rows)).
		Int("records", len(records)).
		Dur("response_time", resp.Time()).
		Msg("Structured search completed")

	return records, nil
}

// IsJSON reports whether a Content-Type header declares a JSON payload.
func IsJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
