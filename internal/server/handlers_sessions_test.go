package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

func seedProfile(t *testing.T, deps *testDeps, info domain.BaseInfo) *domain.Profile {
	t.Helper()
	p, err := deps.profiles.Create(context.Background(), uuid.New(), "Backend Engineer", info)
	require.NoError(t, err)
	return p
}

func TestHandleCreateSession_Success(t *testing.T) {
	srv, deps := newTestServer(t)
	bidderID := uuid.New()
	profile := seedProfile(t, deps, domain.BaseInfo{FirstName: "Ann"})

	body := fmt.Sprintf(`{"profile_id":%q,"url":"https://jobs.example.com/apply/42"}`, profile.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, bidderID, domain.RoleBidder)

	require.NoError(t, callHandler(srv.handleCreateSession, c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, bidderID, got.BidderID)
	assert.Equal(t, "jobs.example.com", got.Domain)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

func TestHandleCreateSession_InvalidURL(t *testing.T) {
	srv, deps := newTestServer(t)
	profile := seedProfile(t, deps, domain.BaseInfo{})

	body := fmt.Sprintf(`{"profile_id":%q,"url":"::not-a-url"}`, profile.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, uuid.New(), domain.RoleBidder)

	_ = callHandler(srv.handleCreateSession, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateSession_AssignedToOtherBidder(t *testing.T) {
	srv, deps := newTestServer(t)
	profile := seedProfile(t, deps, domain.BaseInfo{})
	otherBidder := uuid.New()
	_, err := deps.assignments.Create(context.Background(), profile.ID, otherBidder)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"profile_id":%q,"url":"https://jobs.example.com/apply"}`, profile.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, uuid.New(), domain.RoleBidder)

	_ = callHandler(srv.handleCreateSession, c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleGetSession_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, uuid.New(), domain.RoleBidder)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	_ = callHandler(srv.handleGetSession, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// createSessionForTest drives the manager directly so transition handlers
// can be tested in isolation.
func createSessionForTest(t *testing.T, srv *Server, deps *testDeps, info domain.BaseInfo) *domain.Session {
	t.Helper()
	profile := seedProfile(t, deps, info)
	sess, err := srv.deps.Manager.Create(context.Background(), uuid.New(), profile.ID, "https://jobs.example.com/apply", nil)
	require.NoError(t, err)
	return sess
}

func transitionRequest(srv *Server, sessionID uuid.UUID, action string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID.String()+"/"+action, nil)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, uuid.New(), domain.RoleBidder)
	c.SetParamNames("id")
	c.SetParamValues(sessionID.String())
	return c, rec
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, deps := newTestServer(t)
	sess := createSessionForTest(t, srv, deps, domain.BaseInfo{FirstName: "Ann", Email: "ann@example.com"})

	c, rec := transitionRequest(srv, sess.ID, "go")
	require.NoError(t, callHandler(srv.handleGoSession, c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "warning")

	c, rec = transitionRequest(srv, sess.ID, "analyze")
	require.NoError(t, callHandler(srv.handleAnalyzeSession, c))
	require.Equal(t, http.StatusOK, rec.Code)
	var analyzed domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyzed))
	assert.Equal(t, domain.StatusAnalyzed, analyzed.Status)

	c, rec = transitionRequest(srv, sess.ID, "autofill")
	require.NoError(t, callHandler(srv.handleAutofillSession, c))
	require.Equal(t, http.StatusOK, rec.Code)
	var filled domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filled))
	require.Equal(t, domain.StatusFilled, filled.Status)
	require.NotNil(t, filled.FillPlan)
	assert.Contains(t, filled.FillPlan.Filled, "first_name")
	assert.Contains(t, filled.FillPlan.Filled, "email")
	assert.Equal(t, []string{"eeo", "veteran_status", "disability"}, filled.FillPlan.Blocked)

	c, rec = transitionRequest(srv, sess.ID, "submit")
	require.NoError(t, callHandler(srv.handleSubmitSession, c))
	require.Equal(t, http.StatusOK, rec.Code)
	var submitted domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)
	assert.NotNil(t, submitted.EndedAt)
}

func TestHandleGoSession_LaunchFailureIsSoft(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.driver.err = errBoom
	sess := createSessionForTest(t, srv, deps, domain.BaseInfo{})

	c, rec := transitionRequest(srv, sess.ID, "go")
	require.NoError(t, callHandler(srv.handleGoSession, c))

	// Provisioning failure never fails the request; it degrades to a warning.
	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result["warning"], "launch failed")
}

func TestHandleListSessionEvents(t *testing.T) {
	srv, deps := newTestServer(t)
	sess := createSessionForTest(t, srv, deps, domain.BaseInfo{})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID.String()+"/events", nil)
	rec := httptest.NewRecorder()
	c := newAuthedContext(srv, req, rec, uuid.New(), domain.RoleBidder)
	c.SetParamNames("id")
	c.SetParamValues(sess.ID.String())

	require.NoError(t, callHandler(srv.handleListSessionEvents, c))
	require.Equal(t, http.StatusOK, rec.Code)

	var events []domain.SessionEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "session_created", events[0].Type)
}
