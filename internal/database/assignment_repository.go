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

const assignmentColumns = `id, profile_id, bidder_id, active, created_at, updated_at`

// AssignmentRepo implements domain.AssignmentRepository backed by PostgreSQL.
type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.ProfileID, &a.BidderID, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create deactivates any existing active assignment for the profile before
// inserting, keeping at most one active assignment per profile.
func (r *AssignmentRepo) Create(ctx context.Context, profileID, bidderID uuid.UUID) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE assignments SET active = false, updated_at = now() WHERE profile_id = $1 AND active`,
		profileID); err != nil {
		return nil, fmt.Errorf("failed to deactivate previous assignment: %w", err)
	}

	query := `INSERT INTO assignments (id, profile_id, bidder_id, active, created_at, updated_at)
	          VALUES ($1, $2, $3, true, now(), now())
	          RETURNING ` + assignmentColumns

	assignment, err := scanAssignment(tx.QueryRow(ctx, query, uuid.New(), profileID, bidderID))
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit assignment: %w", err)
	}
	return assignment, nil
}

func (r *AssignmentRepo) GetActiveByProfile(ctx context.Context, profileID uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE profile_id = $1 AND active LIMIT 1`

	assignment, err := scanAssignment(r.pool.QueryRow(ctx, query, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return assignment, nil
}

func (r *AssignmentRepo) ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE bidder_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE assignments SET active = false, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}
