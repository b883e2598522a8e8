package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ErrCaptureEmpty means the browser session saw no playlist request. Usually
// the player never started; the manual DevTools route is the last resort.
var ErrCaptureEmpty = errors.New("no playlist URL appeared in network traffic")

const defaultCaptureWait = 15 * time.Second

// Players hide their start control behind different selectors; tried in
// order, each best-effort.
var playButtonSelectors = []string{
	`button[aria-label*="Play"]`,
	`button[aria-label*="play"]`,
	`.play-button`,
	`.vjs-big-play-button`,
	`button.vjs-play-control`,
	`video`,
}

// CaptureManifestURL drives a headless browser to the page, nudges playback,
// and collects playlist URLs from network traffic. The first URL seen is
// returned — in practice that is the master playlist the player loads first.
func CaptureManifestURL(ctx context.Context, pageURL string, wait time.Duration, printer *Printer) (string, error) {
	if wait <= 0 {
		wait = defaultCaptureWait
	}

	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, wait+30*time.Second)
	defer cancel()

	var mu sync.Mutex
	var captured []string
	record := func(url string) {
		if !strings.Contains(url, ".m3u8") {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, seen := range captured {
			if seen == url {
				return
			}
		}
		captured = append(captured, url)
		printer.Log(LogDebug, fmt.Sprintf("captured playlist URL: %s", url))
	}

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			record(e.Request.URL)
		case *network.EventResponseReceived:
			record(e.Response.URL)
		}
	})

	printer.Log(LogInfo, "launching headless browser for network capture")
	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", wrapCategory(CategoryCapture, fmt.Errorf("loading page in browser: %w", err))
	}

	clickPlayControls(browserCtx, printer)

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		mu.Lock()
		if len(captured) > 0 {
			url := captured[0]
			mu.Unlock()
			return url, nil
		}
		mu.Unlock()
		select {
		case <-browserCtx.Done():
			return "", wrapCategory(CategoryCapture, browserCtx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}

	return "", wrapCategory(CategoryCapture, fmt.Errorf("%s: %w", pageURL, ErrCaptureEmpty))
}

// clickPlayControls tries each known play control, best-effort: playlist
// requests often fire only once playback starts.
func clickPlayControls(ctx context.Context, printer *Printer) {
	for _, selector := range playButtonSelectors {
		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery))
		cancel()
		if err == nil {
			printer.Log(LogDebug, fmt.Sprintf("clicked play control %q", selector))
			return
		}
	}
	printer.Log(LogDebug, "no play control found, waiting for traffic anyway")
}
