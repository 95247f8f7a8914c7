package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/specworks/reqregistry/common/db"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/models"
)

// TestCaseRepository handles database operations for test cases
type TestCaseRepository struct {
	db *db.DB
}

// NewTestCaseRepository creates a new test case repository
func NewTestCaseRepository(db *db.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

const testCaseColumns = `
	id, workspace_id, public_id, name, description, requirement_base_id,
	status, author, created_at, updated_at, deleted_at
`

func scanTestCase(row pgx.Row) (*models.TestCase, error) {
	tc := &models.TestCase{}
	err := row.Scan(
		&tc.ID,
		&tc.WorkspaceID,
		&tc.PublicID,
		&tc.Name,
		&tc.Description,
		&tc.RequirementBaseID,
		&tc.Status,
		&tc.Author,
		&tc.CreatedAt,
		&tc.UpdatedAt,
		&tc.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return tc, nil
}

// Create inserts a new test case
func (r *TestCaseRepository) Create(ctx context.Context, tc *models.TestCase) error {
	query := `
		INSERT INTO test_case (` + testCaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		tc.ID,
		tc.WorkspaceID,
		tc.PublicID,
		tc.Name,
		tc.Description,
		tc.RequirementBaseID,
		tc.Status,
		tc.Author,
		tc.CreatedAt,
		tc.UpdatedAt,
		tc.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test case: %w", err)
	}

	return nil
}

// GetByID retrieves a live test case by ID
func (r *TestCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	query := `SELECT ` + testCaseColumns + ` FROM test_case WHERE id = $1 AND deleted_at IS NULL`

	tc, err := scanTestCase(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("test case %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test case: %w", err)
	}

	return tc, nil
}

// Update updates the mutable fields of a test case
func (r *TestCaseRepository) Update(ctx context.Context, tc *models.TestCase) error {
	query := `
		UPDATE test_case
		SET name = $2, description = $3, requirement_base_id = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		tc.ID,
		tc.Name,
		tc.Description,
		tc.RequirementBaseID,
		tc.Status,
	).Scan(&tc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("test case %s: %w", tc.ID, errs.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update test case: %w", err)
	}

	return nil
}

// SoftDelete marks a test case deleted; its TEST-n number is never reissued
func (r *TestCaseRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE test_case
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete test case: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("test case %s: %w", id, errs.ErrNotFound)
	}

	return nil
}

// ListByWorkspace retrieves live test cases, optionally filtered to one
// requirement.
func (r *TestCaseRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, requirementBaseID *uuid.UUID) ([]*models.TestCase, error) {
	query := `
		SELECT ` + testCaseColumns + `
		FROM test_case
		WHERE workspace_id = $1 AND deleted_at IS NULL
		  AND ($2::uuid IS NULL OR requirement_base_id = $2)
		ORDER BY public_id ASC
	`

	rows, err := r.db.Query(ctx, query, workspaceID, requirementBaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list test cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test case: %w", err)
		}
		cases = append(cases, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test cases: %w", err)
	}

	return cases, nil
}
