// Package browser wraps go-rod to provide one headless browser process and
// one page per autofill session.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

const (
	viewportWidth  = 1280
	viewportHeight = 800
	// navTimeout bounds navigation; we wait for DOM-ready, not full load,
	// because third-party pages may carry long-polling resources that
	// never finish.
	navTimeout = 30 * time.Second
	// focusTimeout bounds the best-effort first-input lookup.
	focusTimeout = 5 * time.Second
)

// firstInputSelector matches the inputs an application form plausibly
// starts with; hidden and submit inputs are excluded.
const firstInputSelector = `input:not([type=hidden]):not([type=submit]), textarea, select`

// Driver implements domain.BrowserDriver with go-rod.
type Driver struct {
	bin string
}

// NewDriver creates a driver. bin optionally pins the chromium binary;
// empty lets the launcher resolve one.
func NewDriver(bin string) *Driver {
	return &Driver{bin: bin}
}

// Launch starts a headless browser, opens a page at a fixed viewport, and
// navigates to url waiting for DOM-ready.
func (d *Driver) Launch(ctx context.Context, url string) (domain.BrowserSession, error) {
	l := launcher.New().Headless(true)
	if d.bin != "" {
		l = l.Bin(d.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		slog.Warn("Failed to set viewport", "error", err)
	}

	s := &session{launcher: l, browser: b, page: page}
	if err := s.Navigate(ctx, url); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// session pairs one browser process with one page.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(navTimeout)

	wait := page.WaitEvent(&proto.PageDomContentEventFired{})
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	wait()
	return nil
}

func (s *session) FocusFirstInput(ctx context.Context) error {
	page := s.page.Context(ctx).Timeout(focusTimeout)

	el, err := page.Element(firstInputSelector)
	if err != nil {
		return fmt.Errorf("no plausible input field found: %w", err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll input into view: %w", err)
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("failed to focus input: %w", err)
	}
	return nil
}

func (s *session) CaptureFrame(ctx context.Context) ([]byte, error) {
	page := s.page.Context(ctx)

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		// Transient by nature: mid-navigation or detached frame. The
		// caller decides whether the stream survives.
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}
	return data, nil
}

// Close disposes page then browser, catching each error independently so a
// failed page close never prevents the browser close attempt.
func (s *session) Close() error {
	if err := s.page.Close(); err != nil {
		slog.Warn("Failed to close page", "error", err)
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("Failed to close browser", "error", err)
	}
	s.launcher.Cleanup()
	return nil
}
