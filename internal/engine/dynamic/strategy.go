// Package dynamic implements the rendered-DOM rung of the retrieval ladder.
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/nepafeed/internal/engine"
	"github.com/law-makers/nepafeed/internal/engine/extract"
	"github.com/law-makers/nepafeed/internal/engine/static"
	"github.com/law-makers/nepafeed/internal/ratelimit"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultDOMWait bounds how long a page may take to render project links.
const DefaultDOMWait = 15 * time.Second

const collectAnchors = `Array.from(document.querySelectorAll('a[href]')).map(a => ({
	href: a.getAttribute('href') || '',
	text: a.textContent || ''
}))`

// Options configures the rendered-DOM strategy.
type Options struct {
	SearchURL string
	BaseURL   string
	// DOMWait is the upper bound on waiting for a project link to appear.
	// Reaching it is not an error; whatever rendered is harvested.
	DOMWait time.Duration
	// AcquireTimeout bounds the wait for a free browser tab.
	AcquireTimeout time.Duration
}

// Strategy drives a headless browser to the search page and harvests
// project anchors from the rendered DOM.
type Strategy struct {
	pool    *BrowserPool
	limiter ratelimit.RateLimiter
	opts    Options
}

// New creates a DOM strategy. A pool must be attached with SetBrowserPool
// before Retrieve can succeed.
func New(lim ratelimit.RateLimiter, opts Options) *Strategy {
	if lim == nil {
		lim = ratelimit.Unlimited{}
	}
	if opts.DOMWait <= 0 {
		opts.DOMWait = DefaultDOMWait
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 30 * time.Second
	}
	return &Strategy{limiter: lim, opts: opts}
}

// SetBrowserPool sets the browser pool for this strategy
func (s *Strategy) SetBrowserPool(pool *BrowserPool) {
	s.pool = pool
}

// Name returns the name of this strategy
func (s *Strategy) Name() string {
	return "DynamicStrategy"
}

// Retrieve renders the search page for term and extracts project links.
func (s *Strategy) Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	if s.pool == nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "no browser pool configured", engine.ErrBrowserNotFound)
	}

	pageURL, err := static.PageURL(s.opts.SearchURL, term)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx, pageURL); err != nil {
		return nil, err
	}

	start := time.Now()

	acquireCtx, acquireCancel := context.WithTimeout(ctx, s.opts.AcquireTimeout)
	browserCtx, err := s.pool.Acquire(acquireCtx)
	acquireCancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to acquire browser", err)
	}
	defer s.pool.Release(browserCtx)

	tabCtx, cancel := context.WithCancel(browserCtx.Ctx)
	defer cancel()
	// Tie the tab to the caller so cancellation stops the navigation.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// Written by the chromedp event goroutine.
	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, documentStatusListener(pageURL, &status))

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(pageURL)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "navigation failed", err).
			WithDetail("url", pageURL)
	}

	statusCode := status.Load()
	if statusCode >= 400 {
		return nil, engine.StatusError(int(statusCode), pageURL)
	}

	waitCtx, waitCancel := context.WithTimeout(tabCtx, s.opts.DOMWait)
	err = chromedp.Run(waitCtx, chromedp.WaitReady(extract.ProjectSelector, chromedp.ByQuery))
	waitCancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "waiting for project links failed", err)
		}
		log.Debug().Str("url", pageURL).Dur("dom_wait", s.opts.DOMWait).Msg("No project links before DOM wait elapsed")
	}

	var anchors []extract.Anchor
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(collectAnchors, &anchors)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, fmt.Sprintf("collecting anchors from %s", pageURL), err)
	}

	records := extract.FromAnchors(anchors, s.opts.BaseURL)

	log.Debug().
		Str("url", pageURL).
		Int64("status", statusCode).
		Int("anchors", len(anchors)).
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("Rendered search completed")

	return records, nil
}

// documentStatusListener records the HTTP status of the response for pageURL.
func documentStatusListener(pageURL string, status *atomic.Int64) func(ev interface{}) {
	return func(ev interface{}) {
		if ev, ok := ev.(*network.EventResponseReceived); ok && ev.Response != nil && ev.Response.URL == pageURL {
			status.Store(ev.Response.Status)
		}
	}
}
