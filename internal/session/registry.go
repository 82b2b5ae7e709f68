package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/metrics"
)

// Handle pairs a live browser session with its optional frame-capture
// cancel func. The capture func is attached lazily on first viewer connect
// and cleared on viewer disconnect; the browser outlives it.
type Handle struct {
	Browser     domain.BrowserSession
	StopCapture func()
}

// HandleUpdate is a partial handle update for Registry.Replace. Nil fields
// keep their existing values, so attaching a capture timer can never orphan
// a running browser process.
type HandleUpdate struct {
	Browser      domain.BrowserSession
	StopCapture  func()
	ClearCapture bool
}

// Registry is the single source of truth for "is there a live browser for
// session X, and does it have an active frame timer". At most one handle
// exists per session id; callers reuse on lookup. The mutex is required:
// handles are mutated from HTTP handlers and websocket close paths on a
// preemptively scheduled runtime.
type Registry struct {
	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[uuid.UUID]*Handle)}
}

// Get returns the current handle for a session, or false if none exists.
func (r *Registry) Get(sessionID uuid.UUID) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[sessionID]
	return h, ok
}

// Put stores a new handle for a session, replacing any previous one.
func (r *Registry) Put(sessionID uuid.UUID, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[sessionID]; !exists {
		metrics.ActiveBrowserHandles.Inc()
	}
	r.handles[sessionID] = h
}

// Replace applies a partial update to an existing handle, preserving fields
// the update does not provide. Returns false if no handle exists.
func (r *Registry) Replace(sessionID uuid.UUID, upd HandleUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[sessionID]
	if !ok {
		return false
	}
	if upd.Browser != nil {
		h.Browser = upd.Browser
	}
	if upd.ClearCapture {
		h.StopCapture = nil
	} else if upd.StopCapture != nil {
		h.StopCapture = upd.StopCapture
	}
	return true
}

// Delete removes and returns the handle for a session, or nil if none.
// The caller owns teardown of the returned handle.
func (r *Registry) Delete(sessionID uuid.UUID) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[sessionID]
	if !ok {
		return nil
	}
	delete(r.handles, sessionID)
	metrics.ActiveBrowserHandles.Dec()
	return h
}

// DisposeAll tears down every handle: capture timers cancelled, browsers
// closed concurrently. Used on process shutdown; close errors are logged
// and discarded.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	handles := make(map[uuid.UUID]*Handle, len(r.handles))
	for id, h := range r.handles {
		handles[id] = h
	}
	r.handles = make(map[uuid.UUID]*Handle)
	metrics.ActiveBrowserHandles.Set(0)
	r.mu.Unlock()

	var g errgroup.Group
	for id, h := range handles {
		g.Go(func() error {
			if h.StopCapture != nil {
				h.StopCapture()
			}
			if err := h.Browser.Close(); err != nil {
				slog.Warn("Failed to close browser during shutdown", "session_id", id.String(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
