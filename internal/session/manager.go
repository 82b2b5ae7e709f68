package session

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/logging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/metrics"
)

// GoResult is the always-success outcome of the go transition. Browser
// provisioning failures are swallowed and carried as a warning: the
// operator inspects the live frame stream to self-diagnose, so hard-failing
// would only block the human-in-the-loop workflow.
type GoResult struct {
	Warning string `json:"warning,omitempty"`
}

// Manager owns the in-memory session list, validates lifecycle transitions,
// and is the sole writer of session status. Constructed once at process
// start and injected into request handlers; Shutdown disposes every live
// browser handle.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	order    []*domain.Session // most-recent-first
	locks    map[uuid.UUID]*sync.Mutex

	registry    *Registry
	driver      domain.BrowserDriver
	profiles    domain.ProfileRepository
	resumes     domain.ResumeRepository
	assignments domain.AssignmentRepository
	events      domain.EventRepository
	clock       clockwork.Clock
}

func NewManager(
	registry *Registry,
	driver domain.BrowserDriver,
	profiles domain.ProfileRepository,
	resumes domain.ResumeRepository,
	assignments domain.AssignmentRepository,
	events domain.EventRepository,
	clock clockwork.Clock,
) *Manager {
	return &Manager{
		sessions:    make(map[uuid.UUID]*domain.Session),
		locks:       make(map[uuid.UUID]*sync.Mutex),
		registry:    registry,
		driver:      driver,
		profiles:    profiles,
		resumes:     resumes,
		assignments: assignments,
		events:      events,
		clock:       clock,
	}
}

// Registry exposes the live-handle registry to the frame streamer.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// lockSession takes the per-session transition lock, creating it on first
// use. Transitions on one session serialize; different sessions proceed
// independently.
func (m *Manager) lockSession(id uuid.UUID) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) get(id uuid.UUID) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// snapshot copies a session under its transition lock. Callers marshal and
// inspect sessions outside any lock, so they must never see the live struct
// a concurrent transition is mutating. Pointer fields (FillPlan, JobContext)
// are written once per transition and never mutated after, so sharing them
// in the copy is safe.
func (m *Manager) snapshot(s *domain.Session) *domain.Session {
	unlock := m.lockSession(s.ID)
	defer unlock()
	out := *s
	return &out
}

// Get returns a snapshot of a session by id.
func (m *Manager) Get(id uuid.UUID) (*domain.Session, error) {
	s, ok := m.get(id)
	if !ok {
		return nil, apperrors.NotFoundError("session not found").WithField("session_id", id.String())
	}
	return m.snapshot(s), nil
}

// List returns snapshots of all sessions, most recent first.
func (m *Manager) List() []*domain.Session {
	m.mu.Lock()
	order := make([]*domain.Session, len(m.order))
	copy(order, m.order)
	m.mu.Unlock()

	out := make([]*domain.Session, 0, len(order))
	for _, s := range order {
		out = append(out, m.snapshot(s))
	}
	return out
}

// appendEvent writes one audit record. The event log is an audit trail, not
// a recovery mechanism, so append failures are logged and do not fail the
// transition.
func (m *Manager) appendEvent(ctx context.Context, sessionID uuid.UUID, eventType string, payload map[string]any) {
	event := &domain.SessionEvent{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: m.clock.Now().UTC(),
	}
	if err := m.events.Append(ctx, event); err != nil {
		logging.WithSession(sessionID.String()).Error("Failed to append session event", "event_type", eventType, "error", err)
	}
}

// advance moves a session's status forward. Status never regresses: a
// transition targeting an earlier state leaves the current one in place.
func advance(s *domain.Session, next domain.SessionStatus) {
	if s.Status.CanAdvanceTo(next) {
		s.Status = next
		metrics.SessionTransitions.WithLabelValues(string(next)).Inc()
	}
}

// Create opens a new session in state OPEN. It fails with a conflict when
// the target profile has an active assignment bound to a different bidder.
// No side effect on the browser layer.
func (m *Manager) Create(ctx context.Context, bidderID, profileID uuid.UUID, rawURL string, selectedResumeID *uuid.UUID) (*domain.Session, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Hostname() == "" {
		return nil, apperrors.ValidationError("invalid session URL").WithField("url", rawURL)
	}

	assignment, err := m.assignments.GetActiveByProfile(ctx, profileID)
	if err != nil && !errors.Is(err, domain.ErrAssignmentNotFound) {
		return nil, apperrors.InternalError("failed to check profile assignment", err)
	}
	if assignment != nil && assignment.BidderID != bidderID {
		return nil, apperrors.ConflictError("profile is assigned to another bidder").
			WithField("profile_id", profileID.String())
	}

	s := &domain.Session{
		ID:               uuid.New(),
		BidderID:         bidderID,
		ProfileID:        profileID,
		URL:              rawURL,
		Domain:           target.Hostname(),
		Status:           domain.StatusOpen,
		SelectedResumeID: selectedResumeID,
		StartedAt:        m.clock.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.order = append([]*domain.Session{s}, m.order...)
	m.mu.Unlock()

	metrics.SessionsCreated.Inc()
	m.appendEvent(ctx, s.ID, "session_created", map[string]any{
		"bidder_id":  bidderID.String(),
		"profile_id": profileID.String(),
		"url":        rawURL,
	})

	return m.snapshot(s), nil
}

// Go ensures a live browser handle exists for the session, creating one or
// navigating the existing page to the session URL, then brings a plausible
// first input into view. Provisioning failures are logged and swallowed;
// the returned result always signals success but may carry a warning.
func (m *Manager) Go(ctx context.Context, sessionID uuid.UUID) (*GoResult, error) {
	timer := prometheus.NewTimer(metrics.TransitionDuration.WithLabelValues("go"))
	defer timer.ObserveDuration()

	unlock := m.lockSession(sessionID)
	defer unlock()

	s, ok := m.get(sessionID)
	if !ok {
		return nil, apperrors.NotFoundError("session not found").WithField("session_id", sessionID.String())
	}

	result := &GoResult{}

	handle, exists := m.registry.Get(sessionID)
	if exists {
		if err := handle.Browser.Navigate(ctx, s.URL); err != nil {
			m.noteProvisionFailure(sessionID, "navigate", err, result)
		}
	} else {
		browserSession, err := m.driver.Launch(ctx, s.URL)
		if err != nil {
			m.noteProvisionFailure(sessionID, "launch", err, result)
		} else {
			handle = &Handle{Browser: browserSession}
			m.registry.Put(sessionID, handle)
		}
	}

	if handle != nil {
		if err := handle.Browser.FocusFirstInput(ctx); err != nil {
			slog.Debug("Could not focus first input", "session_id", sessionID.String(), "error", err)
		}
	}

	m.appendEvent(ctx, sessionID, "session_go", map[string]any{"url": s.URL, "warning": result.Warning})
	return result, nil
}

func (m *Manager) noteProvisionFailure(sessionID uuid.UUID, op string, err error, result *GoResult) {
	provErr := apperrors.ProvisionError("browser "+op+" failed", err).
		WithField("session_id", sessionID.String())
	logging.WithSession(sessionID.String()).Warn("Browser provisioning failed", "op", op, "error", provErr)
	metrics.ProvisionFailures.Inc()
	result.Warning = provErr.Message
}

// Analyze selects a recommended resume (most-recently-created on file for
// the profile) and attaches a placeholder job-context snapshot, then
// advances the session to ANALYZED.
func (m *Manager) Analyze(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	timer := prometheus.NewTimer(metrics.TransitionDuration.WithLabelValues("analyze"))
	defer timer.ObserveDuration()

	unlock := m.lockSession(sessionID)
	defer unlock()

	s, ok := m.get(sessionID)
	if !ok {
		return nil, apperrors.NotFoundError("session not found").WithField("session_id", sessionID.String())
	}

	resume, err := m.resumes.LatestByProfile(ctx, s.ProfileID)
	switch {
	case errors.Is(err, domain.ErrResumeNotFound):
		// No resume on file; analysis still succeeds without a recommendation.
	case err != nil:
		return nil, apperrors.InternalError("failed to look up resumes", err)
	default:
		s.RecommendedResumeID = &resume.ID
	}

	s.JobContext = &domain.JobContext{Source: "placeholder"}
	advance(s, domain.StatusAnalyzed)

	payload := map[string]any{}
	if s.RecommendedResumeID != nil {
		payload["recommended_resume_id"] = s.RecommendedResumeID.String()
	}
	m.appendEvent(ctx, sessionID, "session_analyzed", payload)

	// Copied while the transition lock is still held.
	out := *s
	return &out, nil
}

// Autofill computes the fill plan from profile base info and advances the
// session to FILLED. Fails with not-found when the session or its profile
// is missing.
func (m *Manager) Autofill(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	timer := prometheus.NewTimer(metrics.TransitionDuration.WithLabelValues("autofill"))
	defer timer.ObserveDuration()

	unlock := m.lockSession(sessionID)
	defer unlock()

	s, ok := m.get(sessionID)
	if !ok {
		return nil, apperrors.NotFoundError("session not found").WithField("session_id", sessionID.String())
	}

	profile, err := m.profiles.GetByID(ctx, s.ProfileID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, apperrors.NotFoundError("profile not found").WithField("profile_id", s.ProfileID.String())
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to load profile", err)
	}

	s.FillPlan = ComputeFillPlan(profile.BaseInfo)
	advance(s, domain.StatusFilled)

	fields := make([]string, 0, len(s.FillPlan.Filled))
	for field := range s.FillPlan.Filled {
		fields = append(fields, field)
	}
	m.appendEvent(ctx, sessionID, "session_filled", map[string]any{"fields": fields})

	out := *s
	return &out, nil
}

// MarkSubmitted advances the session to SUBMITTED, stamps the end time, and
// tears down the live browser handle. Teardown failures are swallowed;
// cleanup is best-effort and not user-visible.
func (m *Manager) MarkSubmitted(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	timer := prometheus.NewTimer(metrics.TransitionDuration.WithLabelValues("mark_submitted"))
	defer timer.ObserveDuration()

	unlock := m.lockSession(sessionID)
	defer unlock()

	s, ok := m.get(sessionID)
	if !ok {
		return nil, apperrors.NotFoundError("session not found").WithField("session_id", sessionID.String())
	}

	advance(s, domain.StatusSubmitted)
	now := m.clock.Now().UTC()
	s.EndedAt = &now

	if handle := m.registry.Delete(sessionID); handle != nil {
		if handle.StopCapture != nil {
			handle.StopCapture()
		}
		if err := handle.Browser.Close(); err != nil {
			slog.Warn("Browser teardown failed", "session_id", sessionID.String(), "error", err)
		}
	}

	m.appendEvent(ctx, sessionID, "session_submitted", nil)

	out := *s
	return &out, nil
}

// Shutdown disposes every live browser handle. Sessions themselves are
// process-scoped and simply vanish with the process.
func (m *Manager) Shutdown() {
	m.registry.DisposeAll()
}
