package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	CreatedAt time.Time
}

type Message struct {
	ID        uuid.UUID
	ThreadID  uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
}

type ThreadRepository interface {
	CreateThread(ctx context.Context, authorID uuid.UUID, title string) (*Thread, error)
	GetThread(ctx context.Context, id uuid.UUID) (*Thread, error)
	ListThreads(ctx context.Context) ([]*Thread, error)
	DeleteThread(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, threadID, authorID uuid.UUID, body string) (*Message, error)
	ListMessages(ctx context.Context, threadID uuid.UUID) ([]*Message, error)
}
