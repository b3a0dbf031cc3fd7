package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/nepafeed/internal/engine"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("browser pool is closed")

// BrowserPool owns one Chrome process and a fixed set of warmed-up tabs.
// Runs are sequential, so the pool normally holds a single tab.
type BrowserPool struct {
	size        int
	tabs        chan *BrowserContext
	allocCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// BrowserContext is one tab. Cancel closes it.
type BrowserContext struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserPoolOptions configures Chrome.
type BrowserPoolOptions struct {
	Size       int
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

func allocatorOptions(opts BrowserPoolOptions) []chromedp.ExecAllocatorOption {
	var allocOpts []chromedp.ExecAllocatorOption
	if p := FindChrome(opts.ChromePath); p != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(p))
	}
	allocOpts = append(allocOpts,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return append(allocOpts, opts.ExtraArgs...)
}

// NewBrowserPool starts Chrome and warms up opts.Size tabs. A tab that cannot
// load about:blank means Chrome is unusable, reported as a browser crash.
func NewBrowserPool(opts BrowserPoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = 1
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	pool := &BrowserPool{
		size:        opts.Size,
		tabs:        make(chan *BrowserContext, opts.Size),
		allocCancel: allocCancel,
	}

	for i := 0; i < opts.Size; i++ {
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
			tabCancel()
			pool.Close()
			return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, fmt.Sprintf("failed to start browser tab %d", i), err)
		}
		pool.tabs <- &BrowserContext{Ctx: tabCtx, Cancel: tabCancel}
	}

	log.Info().Int("pool_size", opts.Size).Bool("headless", opts.Headless).Msg("Browser pool ready")
	return pool, nil
}

// Acquire takes a tab, waiting until one is free or ctx is done.
func (bp *BrowserPool) Acquire(ctx context.Context) (*BrowserContext, error) {
	select {
	case tab, ok := <-bp.tabs:
		if !ok {
			return nil, ErrPoolClosed
		}
		bp.mu.Lock()
		closed := bp.closed
		bp.mu.Unlock()
		if closed {
			tab.Cancel()
			return nil, ErrPoolClosed
		}
		return tab, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a browser tab: %w", ctx.Err())
	}
}

// Release blanks the tab and returns it. After Close the tab is discarded.
func (bp *BrowserPool) Release(tab *BrowserContext) {
	bp.mu.Lock()
	closed := bp.closed
	bp.mu.Unlock()
	if closed {
		tab.Cancel()
		return
	}

	// A tab that cannot navigate will fail its next Run and be reported there.
	_ = chromedp.Run(tab.Ctx, chromedp.Navigate("about:blank"))

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		tab.Cancel()
		return
	}
	select {
	case bp.tabs <- tab:
	default:
		tab.Cancel()
		log.Warn().Msg("Browser pool full, discarding tab")
	}
}

// Close shuts every tab and the Chrome process. Safe to call twice.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.tabs)
	for tab := range bp.tabs {
		tab.Cancel()
	}
	bp.allocCancel()

	log.Info().Msg("Browser pool closed")
	return nil
}

// Size is the number of tabs the pool was created with.
func (bp *BrowserPool) Size() int {
	return bp.size
}
