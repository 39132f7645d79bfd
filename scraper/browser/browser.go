package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"tirebot/scraper"
	"tirebot/utils"
)

// Options configures the headless browser.
type Options struct {
	ChromeBin string
	Timeout   time.Duration
	// Settle is how long a page gets to run its scripts after navigation.
	Settle time.Duration
}

// Renderer renders pages in headless Chrome so storefronts that build their
// product grid client-side can be parsed like static HTML.
//
// The browser is started on first use and shared by every Render call until
// Close.
type Renderer struct {
	opts   Options
	logger *utils.Logger

	once        sync.Once
	startErr    error
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// New creates a Renderer. Chrome is not started until the first Render.
func New(opts Options, logger *utils.Logger) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 4 * time.Second
	}
	return &Renderer{opts: opts, logger: logger}
}

func (r *Renderer) start() error {
	r.once.Do(func() {
		chromeBin := r.opts.ChromeBin
		if chromeBin == "" {
			chromeBin = findChromeBinary()
		}
		if chromeBin == "" {
			r.startErr = fmt.Errorf("browser: no chrome binary found (set CHROME_BIN)")
			return
		}
		r.logger.Info("[browser] Using browser binary: %s", chromeBin)

		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.UserAgent(scraper.UserAgent),
			chromedp.ExecPath(chromeBin),
		)

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		// Suppress chromedp log noise
		browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

		if err := chromedp.Run(browserCtx); err != nil {
			cancelCtx()
			cancelAlloc()
			r.startErr = fmt.Errorf("browser: start chrome: %w", err)
			return
		}
		r.browserCtx, r.cancelAlloc, r.cancelCtx = browserCtx, cancelAlloc, cancelCtx
	})
	return r.startErr
}

// Render loads pageURL in a new tab, lets it settle, scrolls to trigger lazy
// loading and returns the resulting document.
func (r *Renderer) Render(ctx context.Context, pageURL string) (string, error) {
	if err := r.start(); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.opts.Timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.opts.Settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser: render %s: %w", pageURL, err)
	}

	r.logger.Debug("[browser] Rendered %s (%d bytes)", pageURL, len(html))
	return html, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() error {
	if r.cancelCtx != nil {
		r.cancelCtx()
	}
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
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
