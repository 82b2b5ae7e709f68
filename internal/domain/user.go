package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role determines which parts of the workflow a user may drive.
type Role string

const (
	RoleManager Role = "manager"
	RoleBidder  Role = "bidder"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleBidder, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  Role
	// PasswordHash is a bcrypt hash. Hashing happens at the server layer.
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, email, name string, role Role, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}
