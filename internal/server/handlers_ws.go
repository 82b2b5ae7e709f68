package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth runs through the cookie session before the upgrade.
		return true
	},
}

// handleFrameStream attaches a viewer to a session's live frame stream.
// An unknown session fails before the upgrade; a session without a live
// browser gets exactly one in-stream error message and is closed.
func (s *Server) handleFrameStream(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}
	if _, err := s.deps.Manager.Get(sessionID); err != nil {
		return err
	}

	ip := c.RealIP()
	if !s.wsLimiter.acquire(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many concurrent streams")
	}
	defer s.wsLimiter.release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.deps.Streamer.Attach(sessionID, conn); err != nil {
		// The streamer already reported the error on the socket.
		return nil
	}

	// Read pump, blocks until the connection closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.deps.Streamer.Detach(sessionID, conn)
	return nil
}

// handleThreadStream subscribes the connection to a thread's message feed.
func (s *Server) handleThreadStream(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid thread id")
	}

	if _, err := s.deps.Threads.GetThread(c.Request().Context(), threadID); err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			return apperrors.NotFoundError("thread not found").WithField("thread_id", threadID.String())
		}
		return apperrors.InternalError("failed to load thread", err)
	}

	ip := c.RealIP()
	if !s.wsLimiter.acquire(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many concurrent streams")
	}
	defer s.wsLimiter.release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.deps.Hub.Register(threadID, conn); err != nil {
		return nil
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.deps.Hub.Unregister(threadID, conn)
	return nil
}
