package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default capture parameters for the calendar snapshot export. Wide enough
// for the seven day columns of the week view.
const (
	DefaultWidth      = 1400
	DefaultHeight     = 1000
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// OutputPath is where the PNG screenshot will be written, e.g.
	// "/var/lib/meetcal/preview.png".
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration

	// Headers are sent with every request of the capture session. The server
	// guards /calendar with the same middleware a browser hits, so the
	// credentials have to ride along here.
	Headers map[string]string
}

// CalendarPNG launches a headless Chromium instance via chromedp, navigates
// to opts.URL (the server-rendered /calendar page), waits for the page to
// signal readiness, and writes a PNG screenshot.
//
// Rendering-complete condition: the calendar root element carries
// data-ready="true" once the grid markup is in place; capture waits on
// `[data-ready="true"]` before screenshotting.
func CalendarPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
