package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/logging"
)

const (
	sessionName    = "worksmart_session"
	sessionKeyUser = "user_id"
	sessionKeyRole = "role"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	user, err := s.deps.Users.GetByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	sess, _ := s.sessionStore.Get(c.Request(), sessionName)
	sess.Values[sessionKeyUser] = user.ID.String()
	sess.Values[sessionKeyRole] = string(user.Role)
	if err := sess.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	logging.WithUser(user.ID.String()).Info("User logged in", "role", string(user.Role))
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleLogout(c echo.Context) error {
	sess, _ := s.sessionStore.Get(c.Request(), sessionName)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to clear session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	user, err := s.deps.Users.GetByID(c.Request().Context(), currentUserID(c))
	if errors.Is(err, domain.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// requireAuth resolves the cookie session and stores user id and role in
// the echo context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}

		rawID, ok := sess.Values[sessionKeyUser].(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}

		role, _ := sess.Values[sessionKeyRole].(string)
		if !domain.Role(role).Valid() {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}

		c.Set("userID", userID)
		c.Set("userRole", domain.Role(role))
		return next(c)
	}
}

// requireRole allows only the listed roles past. Must run after requireAuth.
func (s *Server) requireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := currentUserRole(c)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func currentUserID(c echo.Context) uuid.UUID {
	id, _ := c.Get("userID").(uuid.UUID)
	return id
}

func currentUserRole(c echo.Context) domain.Role {
	role, _ := c.Get("userRole").(domain.Role)
	return role
}
