package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth. Login is the only unauthenticated mutating endpoint, so it
	// gets a per-IP token bucket against credential stuffing.
	s.echo.POST("/auth/login", s.handleLogin, newRateLimiter(1, 5))
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth)
	s.echo.GET("/auth/me", s.handleMe, s.requireAuth)

	// User administration
	s.echo.POST("/api/users", s.handleCreateUser, s.requireAuth, s.requireRole(domain.RoleAdmin))
	s.echo.GET("/api/users", s.handleListUsers, s.requireAuth, s.requireRole(domain.RoleAdmin, domain.RoleManager))
	s.echo.PUT("/api/users/:id/role", s.handleUpdateUserRole, s.requireAuth, s.requireRole(domain.RoleAdmin))
	s.echo.DELETE("/api/users/:id", s.handleDeleteUser, s.requireAuth, s.requireRole(domain.RoleAdmin))

	// Profiles and resumes
	s.echo.POST("/api/profiles", s.handleCreateProfile, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))
	s.echo.GET("/api/profiles", s.handleListProfiles, s.requireAuth)
	s.echo.GET("/api/profiles/:id", s.handleGetProfile, s.requireAuth)
	s.echo.PUT("/api/profiles/:id", s.handleUpdateProfile, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))
	s.echo.DELETE("/api/profiles/:id", s.handleDeleteProfile, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))

	s.echo.POST("/api/profiles/:id/resumes", s.handleUploadResume, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))
	s.echo.GET("/api/profiles/:id/resumes", s.handleListResumes, s.requireAuth)
	s.echo.GET("/api/resumes/:id/file", s.handleDownloadResume, s.requireAuth)
	s.echo.DELETE("/api/resumes/:id", s.handleDeleteResume, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))

	// Assignments
	s.echo.POST("/api/assignments", s.handleCreateAssignment, s.requireAuth, s.requireRole(domain.RoleManager, domain.RoleAdmin))
	s.echo.GET("/api/profiles/:id/assignment", s.handleGetActiveAssignment, s.requireAuth)
	s.echo.GET("/api/bidders/:id/assignments", s.handleListBidderAssignments, s.requireAuth)

	// Autofill sessions
	s.echo.POST("/api/sessions", s.handleCreateSession, s.requireAuth, s.requireRole(domain.RoleBidder, domain.RoleAdmin))
	s.echo.GET("/api/sessions", s.handleListSessions, s.requireAuth)
	s.echo.GET("/api/sessions/:id", s.handleGetSession, s.requireAuth)
	s.echo.GET("/api/sessions/:id/events", s.handleListSessionEvents, s.requireAuth)
	s.echo.POST("/api/sessions/:id/go", s.handleGoSession, s.requireAuth)
	s.echo.POST("/api/sessions/:id/analyze", s.handleAnalyzeSession, s.requireAuth)
	s.echo.POST("/api/sessions/:id/autofill", s.handleAutofillSession, s.requireAuth)
	s.echo.POST("/api/sessions/:id/submit", s.handleSubmitSession, s.requireAuth)

	// Team messaging
	s.echo.POST("/api/threads", s.handleCreateThread, s.requireAuth)
	s.echo.GET("/api/threads", s.handleListThreads, s.requireAuth)
	s.echo.DELETE("/api/threads/:id", s.handleDeleteThread, s.requireAuth, s.requireRole(domain.RoleAdmin))
	s.echo.POST("/api/threads/:id/messages", s.handlePostMessage, s.requireAuth)
	s.echo.GET("/api/threads/:id/messages", s.handleListMessages, s.requireAuth)

	// WebSocket endpoints (cookie-authenticated like the rest of the API)
	s.echo.GET("/ws/sessions/:id/frames", s.handleFrameStream, s.requireAuth)
	s.echo.GET("/ws/threads/:id", s.handleThreadStream, s.requireAuth)
}
