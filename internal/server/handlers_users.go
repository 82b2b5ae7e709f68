package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
)

type createUserRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return apperrors.ValidationError("email, name and password are required")
	}
	if !req.Role.Valid() {
		return apperrors.ValidationError("invalid role").WithField("role", string(req.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	user, err := s.deps.Users.Create(c.Request().Context(), req.Email, req.Name, req.Role, string(hash))
	if err != nil {
		return apperrors.InternalError("failed to create user", err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.deps.Users.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list users", err)
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

type updateRoleRequest struct {
	Role domain.Role `json:"role"`
}

func (s *Server) handleUpdateUserRole(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid user id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if !req.Role.Valid() {
		return apperrors.ValidationError("invalid role").WithField("role", string(req.Role))
	}

	err = s.deps.Users.UpdateRole(c.Request().Context(), userID, req.Role)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found").WithField("user_id", userID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to update role", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid user id")
	}

	err = s.deps.Users.Delete(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found").WithField("user_id", userID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to delete user", err)
	}
	return c.NoContent(http.StatusNoContent)
}
