package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/config"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/messaging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/redis"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/session"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/storage"
)

// --- In-memory fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, email, name string, role domain.Role, passwordHash string) (*domain.User, error) {
	return f.add(&domain.User{Email: email, Name: name, Role: role, PasswordHash: passwordHash}), nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (f *fakeProfileRepo) Create(_ context.Context, managerID uuid.UUID, title string, info domain.BaseInfo) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Profile{ID: uuid.New(), ManagerID: managerID, Title: title, BaseInfo: info}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) List(context.Context) ([]*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileRepo) Update(_ context.Context, id uuid.UUID, title string, info domain.BaseInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Title = title
	p.BaseInfo = info
	return nil
}

func (f *fakeProfileRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(f.profiles, id)
	return nil
}

type fakeResumeRepo struct {
	mu      sync.Mutex
	resumes map[uuid.UUID]*domain.Resume
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{resumes: make(map[uuid.UUID]*domain.Resume)}
}

func (f *fakeResumeRepo) Create(_ context.Context, profileID uuid.UUID, label, fileName, storagePath string, sizeBytes int64) (*domain.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &domain.Resume{
		ID: uuid.New(), ProfileID: profileID, Label: label,
		FileName: fileName, StoragePath: storagePath, SizeBytes: sizeBytes,
		CreatedAt: time.Now(),
	}
	f.resumes[r.ID] = r
	return r, nil
}

func (f *fakeResumeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return nil, domain.ErrResumeNotFound
	}
	return r, nil
}

func (f *fakeResumeRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]*domain.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Resume
	for _, r := range f.resumes {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResumeRepo) LatestByProfile(ctx context.Context, profileID uuid.UUID) (*domain.Resume, error) {
	all, _ := f.ListByProfile(ctx, profileID)
	if len(all) == 0 {
		return nil, domain.ErrResumeNotFound
	}
	latest := all[0]
	for _, r := range all[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeResumeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resumes[id]; !ok {
		return domain.ErrResumeNotFound
	}
	delete(f.resumes, id)
	return nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*domain.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uuid.UUID]*domain.Assignment)}
}

func (f *fakeAssignmentRepo) Create(_ context.Context, profileID, bidderID uuid.UUID) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.ProfileID == profileID {
			a.Active = false
		}
	}
	a := &domain.Assignment{ID: uuid.New(), ProfileID: profileID, BidderID: bidderID, Active: true}
	f.assignments[a.ID] = a
	return a, nil
}

func (f *fakeAssignmentRepo) GetActiveByProfile(_ context.Context, profileID uuid.UUID) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.ProfileID == profileID && a.Active {
			return a, nil
		}
	}
	return nil, domain.ErrAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListByBidder(_ context.Context, bidderID uuid.UUID) ([]*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Assignment
	for _, a := range f.assignments {
		if a.BidderID == bidderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return domain.ErrAssignmentNotFound
	}
	a.Active = false
	return nil
}

type fakeThreadRepo struct {
	mu       sync.Mutex
	threads  map[uuid.UUID]*domain.Thread
	messages map[uuid.UUID][]*domain.Message
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		threads:  make(map[uuid.UUID]*domain.Thread),
		messages: make(map[uuid.UUID][]*domain.Message),
	}
}

func (f *fakeThreadRepo) CreateThread(_ context.Context, authorID uuid.UUID, title string) (*domain.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &domain.Thread{ID: uuid.New(), AuthorID: authorID, Title: title, CreatedAt: time.Now()}
	f.threads[t.ID] = t
	return t, nil
}

func (f *fakeThreadRepo) GetThread(_ context.Context, id uuid.UUID) (*domain.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.threads[id]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return t, nil
}

func (f *fakeThreadRepo) ListThreads(context.Context) ([]*domain.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Thread, 0, len(f.threads))
	for _, t := range f.threads {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeThreadRepo) DeleteThread(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.threads[id]; !ok {
		return domain.ErrThreadNotFound
	}
	delete(f.threads, id)
	return nil
}

func (f *fakeThreadRepo) CreateMessage(_ context.Context, threadID, authorID uuid.UUID, body string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.threads[threadID]; !ok {
		return nil, domain.ErrThreadNotFound
	}
	m := &domain.Message{ID: uuid.New(), ThreadID: threadID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}
	f.messages[threadID] = append(f.messages[threadID], m)
	return m, nil
}

func (f *fakeThreadRepo) ListMessages(_ context.Context, threadID uuid.UUID) ([]*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[threadID], nil
}

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

// stubBrowser and stubDriver keep session transitions off real Chromium.
type stubBrowser struct {
	mu     sync.Mutex
	closed bool
}

func (b *stubBrowser) Navigate(context.Context, string) error { return nil }
func (b *stubBrowser) FocusFirstInput(context.Context) error  { return nil }
func (b *stubBrowser) CaptureFrame(context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (b *stubBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type stubDriver struct {
	err error
}

func (d *stubDriver) Launch(context.Context, string) (domain.BrowserSession, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &stubBrowser{}, nil
}

// --- Test harness ---

type testDeps struct {
	users       *fakeUserRepo
	profiles    *fakeProfileRepo
	resumes     *fakeResumeRepo
	assignments *fakeAssignmentRepo
	threads     *fakeThreadRepo
	events      *fakeEventRepo
	driver      *stubDriver
	registry    *session.Registry
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		users:       newFakeUserRepo(),
		profiles:    newFakeProfileRepo(),
		resumes:     newFakeResumeRepo(),
		assignments: newFakeAssignmentRepo(),
		threads:     newFakeThreadRepo(),
		events:      &fakeEventRepo{},
		driver:      &stubDriver{},
		registry:    session.NewRegistry(),
	}

	manager := session.NewManager(
		deps.registry, deps.driver,
		deps.profiles, deps.resumes, deps.assignments, deps.events,
		clockwork.NewFakeClock(),
	)

	resumeStore, err := storage.NewResumeStore(t.TempDir())
	require.NoError(t, err)

	hub := messaging.NewHub(func(context.Context, uuid.UUID) (<-chan redis.MessagePosted, func()) {
		ch := make(chan redis.MessagePosted)
		return ch, func() { close(ch) }
	})
	t.Cleanup(hub.Stop)

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{Path: "/", MaxAge: 3600}

	e := echo.New()
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:   e,
		config: &config.Config{AppEnv: "test", Port: "0"},
		deps: Dependencies{
			Manager:     manager,
			Hub:         hub,
			Users:       deps.users,
			Profiles:    deps.profiles,
			Resumes:     deps.resumes,
			Assignments: deps.assignments,
			Threads:     deps.threads,
			Events:      deps.events,
			ResumeStore: resumeStore,
		},
		sessionStore: store,
		wsLimiter:    newWSConnLimiter(),
		startTime:    time.Now(),
	}
	srv.registerRoutes()

	return srv, deps
}

// callHandler wraps a handler with error middleware, matching production behavior.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

func newAuthedContext(srv *Server, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID, role domain.Role) echo.Context {
	c := srv.echo.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("userRole", role)
	return c
}

var errBoom = errors.New("boom")
