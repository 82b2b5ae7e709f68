package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	Label     string
	FileName  string
	// StoragePath is relative to the resume storage directory.
	StoragePath string
	SizeBytes   int64
	CreatedAt   time.Time
}

type ResumeRepository interface {
	Create(ctx context.Context, profileID uuid.UUID, label, fileName, storagePath string, sizeBytes int64) (*Resume, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Resume, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*Resume, error)
	// LatestByProfile returns the most-recently-created resume for a profile,
	// or ErrResumeNotFound if the profile has none.
	LatestByProfile(ctx context.Context, profileID uuid.UUID) (*Resume, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
