// Package snapshot captures the running dashboard as full-page PNGs with a
// headless Chrome, one tab per scatterplot measure.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"airbnb-dashboard/charts"
	"airbnb-dashboard/config"
	"airbnb-dashboard/utils"
)

var ErrNoBrowser = errors.New("no chrome or chromium binary found")

// readySelector matches once the page has rendered all of its charts.
const readySelector = `body[data-ready="true"]`

// Result describes one captured page.
type Result struct {
	Measure string
	Path    string
	Err     error
}

// Capturer drives headless Chrome against a dashboard URL.
type Capturer struct {
	cfg    config.SnapshotConfig
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

func New(cfg config.SnapshotConfig, logger *utils.Logger) *Capturer {
	return &Capturer{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Capture opens baseURL once per measure and writes a PNG for each into
// outDir. It returns one Result per measure in input order, and an error
// only when the browser cannot be started or every capture failed.
func (c *Capturer) Capture(ctx context.Context, baseURL, outDir string, measures []charts.Measure) ([]Result, error) {
	chromeBin := c.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if chromeBin == "" {
		return nil, ErrNoBrowser
	}
	c.logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create %s: %w", outDir, err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1280, 900),
		chromedp.ExecPath(chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser before tabs are opened from it concurrently.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	results := make([]Result, len(measures))
	var mu sync.Mutex

	for i, m := range measures {
		i, m := i, m
		c.pool.Submit(func() {
			path := filepath.Join(outDir, "dashboard-"+slug(m.Label)+".png")
			err := c.retry.Do(ctx, "snapshot "+m.Label, func() error {
				return c.captureOne(browserCtx, pageURL(baseURL, m), path)
			})
			if err != nil {
				c.logger.Error("[snapshot] %s failed: %v", m.Label, err)
			} else {
				c.logger.Info("[snapshot] %s → %s", m.Label, path)
			}

			mu.Lock()
			results[i] = Result{Measure: m.Label, Path: path, Err: err}
			mu.Unlock()
		})
	}
	c.pool.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if len(results) > 0 && failed == len(results) {
		return results, fmt.Errorf("snapshot: all %d captures failed: %w", failed, results[0].Err)
	}
	return results, nil
}

func (c *Capturer) captureOne(browserCtx context.Context, target, path string) error {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.Timeout)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Let vega finish its transitions.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// pageURL returns the dashboard URL with the scatterplot preset to m.
func pageURL(baseURL string, m charts.Measure) string {
	q := url.Values{}
	q.Set("measure", m.Label)
	return strings.TrimRight(baseURL, "/") + "/?" + q.Encode()
}

// slug lowercases label and joins its words with dashes: "Number of Beds" → "number-of-beds".
func slug(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "-")
}

// findChromeBinary searches for Chrome/Chromium in common locations.
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
