package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Assignment binds a profile to a bidder. An active assignment makes the
// profile exclusive: no other bidder may open sessions against it.
type Assignment struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	BidderID  uuid.UUID
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AssignmentRepository interface {
	Create(ctx context.Context, profileID, bidderID uuid.UUID) (*Assignment, error)
	// GetActiveByProfile returns the active assignment for a profile, or
	// ErrAssignmentNotFound if the profile is unassigned.
	GetActiveByProfile(ctx context.Context, profileID uuid.UUID) (*Assignment, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]*Assignment, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
