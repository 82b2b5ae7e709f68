package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

// fakeBrowserSession records calls so tests can assert on driver side effects.
type fakeBrowserSession struct {
	mu          sync.Mutex
	navigations []string
	focusCalls  int
	closed      bool
	navErr      error
	captureErr  error
	frame       []byte
}

func (f *fakeBrowserSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	return f.navErr
}

func (f *fakeBrowserSession) FocusFirstInput(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focusCalls++
	return nil
}

func (f *fakeBrowserSession) CaptureFrame(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	if f.frame != nil {
		return f.frame, nil
	}
	return []byte("png"), nil
}

func (f *fakeBrowserSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBrowserSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeDriver struct {
	mu       sync.Mutex
	launched []*fakeBrowserSession
	err      error
}

func (f *fakeDriver) Launch(_ context.Context, url string) (domain.BrowserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeBrowserSession{navigations: []string{url}}
	f.launched = append(f.launched, s)
	return s, nil
}

func (f *fakeDriver) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launched)
}

// fakeProfileRepo serves profiles from a map.
type fakeProfileRepo struct {
	profiles map[uuid.UUID]*domain.Profile
}

func (f *fakeProfileRepo) Create(context.Context, uuid.UUID, string, domain.BaseInfo) (*domain.Profile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) List(context.Context) ([]*domain.Profile, error) { return nil, nil }
func (f *fakeProfileRepo) Update(context.Context, uuid.UUID, string, domain.BaseInfo) error {
	return nil
}
func (f *fakeProfileRepo) Delete(context.Context, uuid.UUID) error { return nil }

// fakeResumeRepo serves the latest resume per profile.
type fakeResumeRepo struct {
	latest map[uuid.UUID]*domain.Resume
}

func (f *fakeResumeRepo) Create(context.Context, uuid.UUID, string, string, string, int64) (*domain.Resume, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeResumeRepo) GetByID(context.Context, uuid.UUID) (*domain.Resume, error) {
	return nil, domain.ErrResumeNotFound
}

func (f *fakeResumeRepo) ListByProfile(context.Context, uuid.UUID) ([]*domain.Resume, error) {
	return nil, nil
}

func (f *fakeResumeRepo) LatestByProfile(_ context.Context, profileID uuid.UUID) (*domain.Resume, error) {
	r, ok := f.latest[profileID]
	if !ok {
		return nil, domain.ErrResumeNotFound
	}
	return r, nil
}

func (f *fakeResumeRepo) Delete(context.Context, uuid.UUID) error { return nil }

// fakeAssignmentRepo serves the active assignment per profile.
type fakeAssignmentRepo struct {
	active map[uuid.UUID]*domain.Assignment
}

func (f *fakeAssignmentRepo) Create(context.Context, uuid.UUID, uuid.UUID) (*domain.Assignment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAssignmentRepo) GetActiveByProfile(_ context.Context, profileID uuid.UUID) (*domain.Assignment, error) {
	a, ok := f.active[profileID]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeAssignmentRepo) ListByBidder(context.Context, uuid.UUID) ([]*domain.Assignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) Deactivate(context.Context, uuid.UUID) error { return nil }

// fakeEventRepo accumulates appended events in order.
type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.SessionEvent
}

func (f *fakeEventRepo) Append(_ context.Context, event *domain.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*domain.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SessionEvent
	for _, ev := range f.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}
