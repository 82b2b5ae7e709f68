package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
)

type createSessionRequest struct {
	ProfileID        uuid.UUID  `json:"profile_id"`
	URL              string     `json:"url"`
	SelectedResumeID *uuid.UUID `json:"selected_resume_id,omitempty"`
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ProfileID == uuid.Nil {
		return apperrors.ValidationError("profile_id is required")
	}
	if req.URL == "" {
		return apperrors.ValidationError("url is required")
	}

	sess, err := s.deps.Manager.Create(c.Request().Context(), currentUserID(c), req.ProfileID, req.URL, req.SelectedResumeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Manager.List())
}

func (s *Server) handleGetSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}

	sess, err := s.deps.Manager.Get(sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleListSessionEvents(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}
	if _, err := s.deps.Manager.Get(sessionID); err != nil {
		return err
	}

	events, err := s.deps.Events.ListBySession(c.Request().Context(), sessionID)
	if err != nil {
		return apperrors.InternalError("failed to list session events", err)
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleGoSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}

	result, err := s.deps.Manager.Go(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyzeSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}

	sess, err := s.deps.Manager.Analyze(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleAutofillSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}

	sess, err := s.deps.Manager.Autofill(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSubmitSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid session id")
	}

	sess, err := s.deps.Manager.MarkSubmitted(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}
