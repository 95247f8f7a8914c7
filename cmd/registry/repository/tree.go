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

// TreeRepository handles database operations for requirement trees
type TreeRepository struct {
	db *db.DB
}

// NewTreeRepository creates a new tree repository
func NewTreeRepository(db *db.DB) *TreeRepository {
	return &TreeRepository{db: db}
}

// Create inserts a new requirement tree
func (r *TreeRepository) Create(ctx context.Context, tree *models.RequirementTree) error {
	query := `
		INSERT INTO requirement_tree (id, workspace_id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		tree.ID,
		tree.WorkspaceID,
		tree.Name,
		tree.Description,
		tree.CreatedBy,
		tree.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tree: %w", err)
	}

	return nil
}

// GetByID retrieves a tree by ID
func (r *TreeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RequirementTree, error) {
	query := `
		SELECT id, workspace_id, name, description, created_by, created_at
		FROM requirement_tree
		WHERE id = $1
	`

	tree := &models.RequirementTree{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tree.ID,
		&tree.WorkspaceID,
		&tree.Name,
		&tree.Description,
		&tree.CreatedBy,
		&tree.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tree %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	return tree, nil
}

// ListByWorkspace retrieves all trees in a workspace
func (r *TreeRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.RequirementTree, error) {
	query := `
		SELECT id, workspace_id, name, description, created_by, created_at
		FROM requirement_tree
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}
	defer rows.Close()

	var trees []*models.RequirementTree
	for rows.Next() {
		tree := &models.RequirementTree{}
		if err := rows.Scan(
			&tree.ID,
			&tree.WorkspaceID,
			&tree.Name,
			&tree.Description,
			&tree.CreatedBy,
			&tree.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		trees = append(trees, tree)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trees: %w", err)
	}

	return trees, nil
}
