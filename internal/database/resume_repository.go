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

const resumeColumns = `id, profile_id, label, file_name, storage_path, size_bytes, created_at`

// ResumeRepo implements domain.ResumeRepository backed by PostgreSQL.
type ResumeRepo struct {
	pool *pgxpool.Pool
}

func NewResumeRepo(pool *pgxpool.Pool) *ResumeRepo {
	return &ResumeRepo{pool: pool}
}

func scanResume(row pgx.Row) (*domain.Resume, error) {
	var res domain.Resume
	err := row.Scan(&res.ID, &res.ProfileID, &res.Label, &res.FileName, &res.StoragePath, &res.SizeBytes, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResumeRepo) Create(ctx context.Context, profileID uuid.UUID, label, fileName, storagePath string, sizeBytes int64) (*domain.Resume, error) {
	query := `INSERT INTO resumes (id, profile_id, label, file_name, storage_path, size_bytes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, now())
	          RETURNING ` + resumeColumns

	resume, err := scanResume(r.pool.QueryRow(ctx, query, uuid.New(), profileID, label, fileName, storagePath, sizeBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return resume, nil
}

func (r *ResumeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`

	resume, err := scanResume(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

func (r *ResumeRepo) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE profile_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*domain.Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, resume)
	}
	return resumes, rows.Err()
}

func (r *ResumeRepo) LatestByProfile(ctx context.Context, profileID uuid.UUID) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE profile_id = $1 ORDER BY created_at DESC LIMIT 1`

	resume, err := scanResume(r.pool.QueryRow(ctx, query, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest resume: %w", err)
	}
	return resume, nil
}

func (r *ResumeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResumeNotFound
	}
	return nil
}
