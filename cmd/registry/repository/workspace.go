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

// WorkspaceRepository handles database operations for workspaces
type WorkspaceRepository struct {
	db *db.DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *db.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts a new workspace
func (r *WorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) error {
	query := `
		INSERT INTO workspace (id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, ws.ID, ws.Name, ws.CreatedBy, ws.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM workspace
		WHERE id = $1
	`

	ws := &models.Workspace{}
	err := r.db.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workspace %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return ws, nil
}

// List retrieves all workspaces
func (r *WorkspaceRepository) List(ctx context.Context) ([]*models.Workspace, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM workspace
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		ws := &models.Workspace{}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspaces: %w", err)
	}

	return workspaces, nil
}
