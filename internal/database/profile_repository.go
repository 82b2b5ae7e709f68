package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
)

const profileColumns = `id, manager_id, title, base_info, created_at, updated_at`

// ProfileRepo implements domain.ProfileRepository backed by PostgreSQL.
// Base info is stored as a JSONB document; unset fields stay absent.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p    domain.Profile
		info []byte
	)
	if err := row.Scan(&p.ID, &p.ManagerID, &p.Title, &info, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &p.BaseInfo); err != nil {
			return nil, fmt.Errorf("failed to decode base info: %w", err)
		}
	}
	return &p, nil
}

func (r *ProfileRepo) Create(ctx context.Context, managerID uuid.UUID, title string, info domain.BaseInfo) (*domain.Profile, error) {
	encoded, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode base info: %w", err)
	}

	query := `INSERT INTO profiles (id, manager_id, title, base_info, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, now(), now())
	          RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, uuid.New(), managerID, title, encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepo) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepo) Update(ctx context.Context, id uuid.UUID, title string, info domain.BaseInfo) error {
	encoded, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode base info: %w", err)
	}

	query := `UPDATE profiles SET title = $2, base_info = $3, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, title, encoded)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
