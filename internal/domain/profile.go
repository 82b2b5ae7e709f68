package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is a job-application identity a bidder works against: the base
// info used to resolve autofill values plus bookkeeping fields.
type Profile struct {
	ID        uuid.UUID
	ManagerID uuid.UUID
	Title     string
	BaseInfo  BaseInfo
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BaseInfo is the fill-data source for a profile. Unset fields are simply
// absent from computed fill plans, never filled with empty values.
type BaseInfo struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`
}

type ProfileRepository interface {
	Create(ctx context.Context, managerID uuid.UUID, title string, info BaseInfo) (*Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Update(ctx context.Context, id uuid.UUID, title string, info BaseInfo) error
	Delete(ctx context.Context, id uuid.UUID) error
}
