package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/config"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/messaging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/redis"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/session"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/storage"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/stream"
)

const sessionMaxAgeDays = 7

// pinger is the minimal dependency surface for readiness checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries everything the HTTP surface needs. The session
// Manager is injected explicitly; handlers never reach for process-global
// state.
type Dependencies struct {
	Manager     *session.Manager
	Streamer    *stream.Streamer
	Hub         *messaging.Hub
	Users       domain.UserRepository
	Profiles    domain.ProfileRepository
	Resumes     domain.ResumeRepository
	Assignments domain.AssignmentRepository
	Threads     domain.ThreadRepository
	Events      domain.EventRepository
	ResumeStore *storage.ResumeStore
	PubSub      *redis.PubSub
	DB          pinger
	Redis       pinger
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	deps         Dependencies
	sessionStore *sessions.CookieStore
	wsLimiter    *wsConnLimiter
	startTime    time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		deps:         deps,
		sessionStore: sessionStore,
		wsLimiter:    newWSConnLimiter(),
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
