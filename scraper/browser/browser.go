// Package browser is the headless-Chrome scrape backend. It renders each
// listing site and has the language model extract records from the page
// text, for use when no extraction API key is configured.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"realestate-agent/models"
	"realestate-agent/scraper"
	"realestate-agent/services"
	"realestate-agent/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Extractor pulls listing records out of rendered page text.
type Extractor interface {
	ExtractProperties(ctx context.Context, pageText, instruction string) []models.RawProperty
}

// renderFunc returns the visible text of the page at url.
type renderFunc func(ctx context.Context, url string) (string, error)

// Scraper renders listing pages in a headless browser.
type Scraper struct {
	chromeBin string
	limit     int
	timeout   time.Duration
	settle    time.Duration
	extractor Extractor
	cleaner   *services.Cleaner
	logger    *utils.Logger

	// render is swapped out in tests; nil means a real browser.
	render renderFunc
}

// New creates a browser Scraper. chromeBin may be empty, in which case the
// usual install locations are searched.
func New(chromeBin string, limit int, timeout time.Duration, extractor Extractor, cleaner *services.Cleaner, logger *utils.Logger) *Scraper {
	return &Scraper{
		chromeBin: chromeBin,
		limit:     limit,
		timeout:   timeout,
		settle:    5 * time.Second,
		extractor: extractor,
		cleaner:   cleaner,
		logger:    logger,
	}
}

// FetchProperties renders each source page in turn until enough records
// are collected. It never fails: problems are logged and yield what was
// gathered so far, possibly nothing.
func (s *Scraper) FetchProperties(ctx context.Context, req models.SearchRequest) []models.Property {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	render := s.render
	if render == nil {
		chromeBin := s.chromeBin
		if chromeBin == "" {
			chromeBin = findChromeBinary()
		}
		if chromeBin == "" {
			s.logger.Error("[browser] No Chrome/Chromium binary found; set CHROME_BIN")
			return []models.Property{}
		}
		s.logger.Info("[browser] Using browser binary: %s", chromeBin)

		browserCtx, cancel := newBrowserContext(ctx, chromeBin)
		defer cancel()
		render = func(_ context.Context, url string) (string, error) {
			return s.renderPage(browserCtx, url)
		}
	}

	instruction := scraper.Instruction(req, s.limit)
	var raw []models.RawProperty
	for _, source := range scraper.SourceURLs(req.City) {
		if len(raw) >= s.limit {
			break
		}
		if ctx.Err() != nil {
			s.logger.Warn("[browser] Stopping early: %v", ctx.Err())
			break
		}

		url := scraper.PageURL(source)
		s.logger.Info("[browser] Rendering %s", url)
		text, err := render(ctx, url)
		if err != nil {
			s.logger.Error("[browser] Render %s failed: %v", url, err)
			continue
		}

		found := s.extractor.ExtractProperties(ctx, text, instruction)
		for i := range found {
			if found[i].SourceURL == "" {
				found[i].SourceURL = url
			}
		}
		s.logger.Info("[browser] %s yielded %d records", url, len(found))
		raw = append(raw, found...)
	}

	props := s.cleaner.Clean(raw, req.City)
	if len(props) > s.limit {
		props = props[:s.limit]
	}
	s.logger.Info("[browser] Scrape complete: %d properties", len(props))
	return props
}

// renderPage loads url in a new tab, scrolls to trigger lazy loading and
// returns the body text.
func (s *Scraper) renderPage(browserCtx context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	var text string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.settle),

		// Scroll to load all cards
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),

		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp: %w", err)
	}
	return text, nil
}

func newBrowserContext(parent context.Context, chromeBin string) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
		chromedp.ExecPath(chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
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
