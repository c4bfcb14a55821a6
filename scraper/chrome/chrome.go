// Package chrome implements scraper.Fetcher on top of a headless Chrome
// driven through chromedp.
package chrome

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"seloger-notifier/scraper"
	"seloger-notifier/utils"
)

const acceptLanguage = "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"

// Options configures the browser.
type Options struct {
	ChromeBin   string
	PageTimeout time.Duration
	SettleDelay time.Duration
	RateLimitMs int
	MaxRetries  int
	UserAgents  []string
}

// Fetcher loads pages in tabs of a single shared browser. Calls are
// serialized by a throttle so the site sees at most one request per
// RateLimitMs.
type Fetcher struct {
	opts     Options
	logger   *utils.Logger
	throttle *utils.Throttle
	retry    *utils.RetryConfig
	agents   *userAgentPool

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

var _ scraper.Fetcher = (*Fetcher)(nil)

// New starts the browser. Close must be called to shut it down.
func New(opts Options, logger *utils.Logger) (*Fetcher, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 60 * time.Second
	}

	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[chrome] Using browser binary: %s", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(defaultUserAgents[0]),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("chrome: start browser: %w", err)
	}

	return &Fetcher{
		opts:     opts,
		logger:   logger,
		throttle: utils.NewThrottle(opts.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Multiplier:  2,
			Logger:      logger,
		},
		agents:        newUserAgentPool(opts.UserAgents),
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.cancelBrowser()
	f.cancelAlloc()
}

// Fetch loads url in a fresh tab and returns the outer HTML of the document.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts scraper.FetchOptions) (string, error) {
	var html string

	err := f.retry.Do(ctx, "fetch "+url, func() error {
		if err := f.throttle.Wait(ctx); err != nil {
			return err
		}

		tabCtx, cancel := chromedp.NewContext(f.browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.PageTimeout)
		defer cancelTimeout()

		// A cancelled caller closes the tab.
		stop := context.AfterFunc(ctx, cancelTimeout)
		defer stop()

		f.logger.Debug("[chrome] Fetching %s (js=%v antibot=%v scroll=%v)", url, opts.RenderJS, opts.AntiBot, opts.AutoScroll)

		if err := chromedp.Run(tabCtx, f.actions(url, opts, &html)...); err != nil {
			return fmt.Errorf("chromedp: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

func (f *Fetcher) actions(url string, opts scraper.FetchOptions, html *string) []chromedp.Action {
	var actions []chromedp.Action

	if opts.AntiBot {
		actions = append(actions,
			emulation.SetUserAgentOverride(f.agents.next()).WithAcceptLanguage(acceptLanguage),
		)
	}
	if !opts.RenderJS {
		actions = append(actions, emulation.SetScriptExecutionDisabled(true))
	}

	actions = append(actions, chromedp.Navigate(url))

	if opts.RenderJS && f.opts.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(f.opts.SettleDelay))
	}
	if opts.AutoScroll {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
		)
	}

	return append(actions, chromedp.OuterHTML("html", html, chromedp.ByQuery))
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
