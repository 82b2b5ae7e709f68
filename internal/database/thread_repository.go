package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

// ThreadRepo implements domain.ThreadRepository backed by PostgreSQL.
type ThreadRepo struct {
	pool *pgxpool.Pool
}

func NewThreadRepo(pool *pgxpool.Pool) *ThreadRepo {
	return &ThreadRepo{pool: pool}
}

func (r *ThreadRepo) CreateThread(ctx context.Context, authorID uuid.UUID, title string) (*domain.Thread, error) {
	query := `INSERT INTO threads (id, author_id, title, created_at)
	          VALUES ($1, $2, $3, now())
	          RETURNING id, author_id, title, created_at`

	var th domain.Thread
	err := r.pool.QueryRow(ctx, query, uuid.New(), authorID, title).
		Scan(&th.ID, &th.AuthorID, &th.Title, &th.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &th, nil
}

func (r *ThreadRepo) GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error) {
	query := `SELECT id, author_id, title, created_at FROM threads WHERE id = $1`

	var th domain.Thread
	err := r.pool.QueryRow(ctx, query, id).Scan(&th.ID, &th.AuthorID, &th.Title, &th.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &th, nil
}

func (r *ThreadRepo) ListThreads(ctx context.Context) ([]*domain.Thread, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, author_id, title, created_at FROM threads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []*domain.Thread
	for rows.Next() {
		var th domain.Thread
		if err := rows.Scan(&th.ID, &th.AuthorID, &th.Title, &th.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, &th)
	}
	return threads, rows.Err()
}

func (r *ThreadRepo) DeleteThread(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrThreadNotFound
	}
	return nil
}

func (r *ThreadRepo) CreateMessage(ctx context.Context, threadID, authorID uuid.UUID, body string) (*domain.Message, error) {
	query := `INSERT INTO messages (id, thread_id, author_id, body, created_at)
	          VALUES ($1, $2, $3, $4, now())
	          RETURNING id, thread_id, author_id, body, created_at`

	var m domain.Message
	err := r.pool.QueryRow(ctx, query, uuid.New(), threadID, authorID, body).
		Scan(&m.ID, &m.ThreadID, &m.AuthorID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &m, nil
}

func (r *ThreadRepo) ListMessages(ctx context.Context, threadID uuid.UUID) ([]*domain.Message, error) {
	query := `SELECT id, thread_id, author_id, body, created_at FROM messages
	          WHERE thread_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.AuthorID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
