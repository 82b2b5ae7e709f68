package domain

import "context"

// BrowserSession is one live headless browser process plus one page, bound
// to a single autofill session for its lifetime.
type BrowserSession interface {
	// Navigate points the existing page at a fresh URL, waiting for the
	// DOM-ready signal rather than full resource load.
	Navigate(ctx context.Context, url string) error
	// FocusFirstInput scrolls a plausible first form input into view.
	FocusFirstInput(ctx context.Context) error
	// CaptureFrame takes a full-page screenshot. Failures are transient
	// (mid-navigation, detached frame) and must be reported to the caller.
	CaptureFrame(ctx context.Context) ([]byte, error)
	// Close disposes page then browser; a failed page close must not
	// prevent the browser close attempt.
	Close() error
}

// BrowserDriver launches headless browsers, one per session.
type BrowserDriver interface {
	Launch(ctx context.Context, url string) (BrowserSession, error)
}
