package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/logging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/redis"
)

type createThreadRequest struct {
	Title string `json:"title"`
}

type threadResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func toThreadResponse(t *domain.Thread) threadResponse {
	return threadResponse{ID: t.ID, AuthorID: t.AuthorID, Title: t.Title, CreatedAt: t.CreatedAt}
}

func (s *Server) handleCreateThread(c echo.Context) error {
	var req createThreadRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	thread, err := s.deps.Threads.CreateThread(c.Request().Context(), currentUserID(c), req.Title)
	if err != nil {
		return apperrors.InternalError("failed to create thread", err)
	}
	return c.JSON(http.StatusCreated, toThreadResponse(thread))
}

func (s *Server) handleListThreads(c echo.Context) error {
	threads, err := s.deps.Threads.ListThreads(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list threads", err)
	}
	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteThread(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid thread id")
	}

	err = s.deps.Threads.DeleteThread(c.Request().Context(), threadID)
	if errors.Is(err, domain.ErrThreadNotFound) {
		return apperrors.NotFoundError("thread not found").WithField("thread_id", threadID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete thread", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type postMessageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	ID        uuid.UUID `json:"id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{ID: m.ID, ThreadID: m.ThreadID, AuthorID: m.AuthorID, Body: m.Body, CreatedAt: m.CreatedAt}
}

// handlePostMessage persists the message, then fans it out. Fanout is
// best-effort: a Pub/Sub publish failure is logged and the post still
// succeeds.
func (s *Server) handlePostMessage(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid thread id")
	}

	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Body == "" {
		return apperrors.ValidationError("body is required")
	}

	ctx := c.Request().Context()
	msg, err := s.deps.Threads.CreateMessage(ctx, threadID, currentUserID(c), req.Body)
	if errors.Is(err, domain.ErrThreadNotFound) {
		return apperrors.NotFoundError("thread not found").WithField("thread_id", threadID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to create message", err)
	}

	posted := redis.MessagePosted{
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
	if s.deps.PubSub != nil {
		if err := s.deps.PubSub.PublishMessage(ctx, posted); err != nil {
			pubErr := apperrors.ExternalError("failed to publish thread message", err).
				WithField("thread_id", threadID.String())
			logging.WithError(pubErr).Warn("Thread message fanout degraded", "thread_id", threadID.String())
			// Local subscribers still get the message directly.
			s.deps.Hub.BroadcastMessage(posted)
		}
	} else {
		s.deps.Hub.BroadcastMessage(posted)
	}

	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleListMessages(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid thread id")
	}

	ctx := c.Request().Context()
	if _, err := s.deps.Threads.GetThread(ctx, threadID); err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			return apperrors.NotFoundError("thread not found").WithField("thread_id", threadID.String())
		}
		return apperrors.InternalError("failed to load thread", err)
	}

	messages, err := s.deps.Threads.ListMessages(ctx, threadID)
	if err != nil {
		return apperrors.InternalError("failed to list messages", err)
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}
