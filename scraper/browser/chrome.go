package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"regatta-resume/utils"
)

// Page is the slice of a browser tab the harvester needs.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string, out any) error
}

// Options configures a Chrome session.
type Options struct {
	ChromeBin       string
	PageLoadTimeout time.Duration
}

// Chrome is a headless Chrome session with a single reused tab. It is owned by
// one run and must be closed on every exit path.
type Chrome struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	loadTimeout time.Duration
	logger      *utils.Logger
}

// Launch starts a headless browser.
func Launch(opts Options, logger *utils.Logger) (*Chrome, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser eagerly so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	loadTimeout := opts.PageLoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = 30 * time.Second
	}

	return &Chrome{
		ctx:         tabCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
		loadTimeout: loadTimeout,
		logger:      logger,
	}, nil
}

// Navigate loads url, bounded by the page-load timeout.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := c.bound(ctx, c.loadTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// Evaluate runs script in the page and decodes its result into out (which may be nil).
func (c *Chrome) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, cancel := c.bound(ctx, c.loadTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("browser: evaluate: %w", err)
	}
	return nil
}

// bound derives a chromedp context carrying the caller's deadline, or limit
// when the caller has none.
func (c *Chrome) bound(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(c.ctx, deadline)
	}
	return context.WithTimeout(c.ctx, limit)
}

// Close quits the browser.
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	c.logger.Debug("[browser] Session closed")
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
