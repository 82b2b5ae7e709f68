package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/logging"
)

const maxResumeSizeBytes = 10 << 20 // 10 MiB

type profileRequest struct {
	Title    string          `json:"title"`
	BaseInfo domain.BaseInfo `json:"base_info"`
}

type profileResponse struct {
	ID        uuid.UUID       `json:"id"`
	ManagerID uuid.UUID       `json:"manager_id"`
	Title     string          `json:"title"`
	BaseInfo  domain.BaseInfo `json:"base_info"`
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{ID: p.ID, ManagerID: p.ManagerID, Title: p.Title, BaseInfo: p.BaseInfo}
}

func (s *Server) handleCreateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	profile, err := s.deps.Profiles.Create(c.Request().Context(), currentUserID(c), req.Title, req.BaseInfo)
	if err != nil {
		return apperrors.InternalError("failed to create profile", err)
	}
	return c.JSON(http.StatusCreated, toProfileResponse(profile))
}

func (s *Server) handleListProfiles(c echo.Context) error {
	profiles, err := s.deps.Profiles.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list profiles", err)
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	profile, err := s.deps.Profiles.GetByID(c.Request().Context(), profileID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return apperrors.NotFoundError("profile not found").WithField("profile_id", profileID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load profile", err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	err = s.deps.Profiles.Update(c.Request().Context(), profileID, req.Title, req.BaseInfo)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return apperrors.NotFoundError("profile not found").WithField("profile_id", profileID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to update profile", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteProfile(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	err = s.deps.Profiles.Delete(c.Request().Context(), profileID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return apperrors.NotFoundError("profile not found").WithField("profile_id", profileID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete profile", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Resumes ---

type resumeResponse struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Label     string    `json:"label"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
}

func toResumeResponse(r *domain.Resume) resumeResponse {
	return resumeResponse{ID: r.ID, ProfileID: r.ProfileID, Label: r.Label, FileName: r.FileName, SizeBytes: r.SizeBytes}
}

func (s *Server) handleUploadResume(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	ctx := c.Request().Context()
	if _, err := s.deps.Profiles.GetByID(ctx, profileID); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return apperrors.NotFoundError("profile not found").WithField("profile_id", profileID.String())
		}
		return apperrors.InternalError("failed to load profile", err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.ValidationError("resume file is required")
	}
	if fileHeader.Size > maxResumeSizeBytes {
		return apperrors.ValidationError("resume file too large").WithField("size_bytes", fileHeader.Size)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("failed to read upload", err)
	}
	defer src.Close()

	label := c.FormValue("label")
	if label == "" {
		label = fileHeader.Filename
	}

	resumeID := uuid.New()
	storagePath, size, err := s.deps.ResumeStore.Save(resumeID, fileHeader.Filename, src)
	if err != nil {
		return apperrors.InternalError("failed to store resume", err)
	}

	resume, err := s.deps.Resumes.Create(ctx, profileID, label, fileHeader.Filename, storagePath, size)
	if err != nil {
		if rmErr := s.deps.ResumeStore.Remove(storagePath); rmErr != nil {
			logging.WithProfile(profileID.String()).Warn("Orphaned resume file left on disk", "path", storagePath, "error", rmErr)
		}
		return apperrors.InternalError("failed to create resume", err)
	}
	return c.JSON(http.StatusCreated, toResumeResponse(resume))
}

func (s *Server) handleListResumes(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	resumes, err := s.deps.Resumes.ListByProfile(c.Request().Context(), profileID)
	if err != nil {
		return apperrors.InternalError("failed to list resumes", err)
	}
	out := make([]resumeResponse, 0, len(resumes))
	for _, r := range resumes {
		out = append(out, toResumeResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDownloadResume(c echo.Context) error {
	resumeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid resume id")
	}

	resume, err := s.deps.Resumes.GetByID(c.Request().Context(), resumeID)
	if errors.Is(err, domain.ErrResumeNotFound) {
		return apperrors.NotFoundError("resume not found").WithField("resume_id", resumeID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load resume", err)
	}

	f, err := s.deps.ResumeStore.Open(resume.StoragePath)
	if err != nil {
		return apperrors.InternalError("failed to open resume file", err)
	}
	defer f.Close()

	return c.Attachment(f.Name(), resume.FileName)
}

func (s *Server) handleDeleteResume(c echo.Context) error {
	resumeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid resume id")
	}

	ctx := c.Request().Context()
	resume, err := s.deps.Resumes.GetByID(ctx, resumeID)
	if errors.Is(err, domain.ErrResumeNotFound) {
		return apperrors.NotFoundError("resume not found").WithField("resume_id", resumeID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load resume", err)
	}

	if err := s.deps.Resumes.Delete(ctx, resumeID); err != nil {
		return apperrors.InternalError("failed to delete resume", err)
	}
	_ = s.deps.ResumeStore.Remove(resume.StoragePath)
	return c.NoContent(http.StatusNoContent)
}

// --- Assignments ---

type createAssignmentRequest struct {
	ProfileID uuid.UUID `json:"profile_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
}

type assignmentResponse struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Active    bool      `json:"active"`
}

func toAssignmentResponse(a *domain.Assignment) assignmentResponse {
	return assignmentResponse{ID: a.ID, ProfileID: a.ProfileID, BidderID: a.BidderID, Active: a.Active}
}

func (s *Server) handleCreateAssignment(c echo.Context) error {
	var req createAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ProfileID == uuid.Nil || req.BidderID == uuid.Nil {
		return apperrors.ValidationError("profile_id and bidder_id are required")
	}

	ctx := c.Request().Context()
	if _, err := s.deps.Profiles.GetByID(ctx, req.ProfileID); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return apperrors.NotFoundError("profile not found").WithField("profile_id", req.ProfileID.String())
		}
		return apperrors.InternalError("failed to load profile", err)
	}
	bidder, err := s.deps.Users.GetByID(ctx, req.BidderID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("bidder not found").WithField("bidder_id", req.BidderID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load bidder", err)
	}
	if bidder.Role != domain.RoleBidder {
		return apperrors.ValidationError("assignee must be a bidder").WithField("role", string(bidder.Role))
	}

	assignment, err := s.deps.Assignments.Create(ctx, req.ProfileID, req.BidderID)
	if err != nil {
		return apperrors.InternalError("failed to create assignment", err)
	}
	return c.JSON(http.StatusCreated, toAssignmentResponse(assignment))
}

func (s *Server) handleGetActiveAssignment(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid profile id")
	}

	assignment, err := s.deps.Assignments.GetActiveByProfile(c.Request().Context(), profileID)
	if errors.Is(err, domain.ErrAssignmentNotFound) {
		return apperrors.NotFoundError("no active assignment").WithField("profile_id", profileID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load assignment", err)
	}
	return c.JSON(http.StatusOK, toAssignmentResponse(assignment))
}

func (s *Server) handleListBidderAssignments(c echo.Context) error {
	bidderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid bidder id")
	}

	assignments, err := s.deps.Assignments.ListByBidder(c.Request().Context(), bidderID)
	if err != nil {
		return apperrors.InternalError("failed to list assignments", err)
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}
