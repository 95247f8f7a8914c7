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

// ViewRepository handles database operations for tree views. Views and
// their selection/member rows are written once and never updated.
type ViewRepository struct {
	db *db.DB
}

// NewViewRepository creates a new view repository
func NewViewRepository(db *db.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// Create persists a view, its group selections and its resolved members in
// one transaction.
func (r *ViewRepository) Create(ctx context.Context, view *models.ReqTreeView, selections []models.ViewSelection, memberVersionIDs []uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO req_tree_view (id, tree_id, name, rule, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.Exec(ctx, query,
			view.ID,
			view.TreeID,
			view.Name,
			view.Rule,
			view.CreatedBy,
			view.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert view: %w", err)
		}

		for _, sel := range selections {
			q := `
				INSERT INTO view_selection (view_id, group_id, parameter_version_id)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.Exec(ctx, q, view.ID, sel.GroupID, sel.ParameterVersionID); err != nil {
				return fmt.Errorf("failed to insert view selection: %w", err)
			}
		}

		for _, memberID := range memberVersionIDs {
			q := `
				INSERT INTO view_member (view_id, requirement_version_id)
				VALUES ($1, $2)
			`
			if _, err := tx.Exec(ctx, q, view.ID, memberID); err != nil {
				return fmt.Errorf("failed to insert view member: %w", err)
			}
		}

		return nil
	})
}

// GetByID retrieves a view by ID
func (r *ViewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReqTreeView, error) {
	query := `
		SELECT id, tree_id, name, rule, created_by, created_at
		FROM req_tree_view
		WHERE id = $1
	`

	view := &models.ReqTreeView{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&view.ID,
		&view.TreeID,
		&view.Name,
		&view.Rule,
		&view.CreatedBy,
		&view.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("view %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view: %w", err)
	}

	return view, nil
}

// ListByTree retrieves all views created for a tree
func (r *ViewRepository) ListByTree(ctx context.Context, treeID uuid.UUID) ([]*models.ReqTreeView, error) {
	query := `
		SELECT id, tree_id, name, rule, created_by, created_at
		FROM req_tree_view
		WHERE tree_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer rows.Close()

	var views []*models.ReqTreeView
	for rows.Next() {
		view := &models.ReqTreeView{}
		if err := rows.Scan(
			&view.ID,
			&view.TreeID,
			&view.Name,
			&view.Rule,
			&view.CreatedBy,
			&view.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}

	return views, nil
}

// GetSelections retrieves the group selections of a view
func (r *ViewRepository) GetSelections(ctx context.Context, viewID uuid.UUID) ([]models.ViewSelection, error) {
	query := `
		SELECT view_id, group_id, parameter_version_id
		FROM view_selection
		WHERE view_id = $1
		ORDER BY group_id ASC
	`

	rows, err := r.db.Query(ctx, query, viewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get view selections: %w", err)
	}
	defer rows.Close()

	var selections []models.ViewSelection
	for rows.Next() {
		var sel models.ViewSelection
		if err := rows.Scan(&sel.ViewID, &sel.GroupID, &sel.ParameterVersionID); err != nil {
			return nil, fmt.Errorf("failed to scan view selection: %w", err)
		}
		selections = append(selections, sel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view selections: %w", err)
	}

	return selections, nil
}

// GetMemberVersions retrieves the requirement versions included in a view,
// in public-ID order. Members are pinned version IDs, not chain heads, so a
// view keeps showing the rows current at its creation.
func (r *ViewRepository) GetMemberVersions(ctx context.Context, viewID uuid.UUID) ([]*models.RequirementVersion, error) {
	query := `
		SELECT v.id, v.base_id, v.tree_id, v.parent_id, v.prev_version_id, v.version_number,
		       v.level, v.priority, v.functional_type, v.validation_method, v.name, v.definition,
		       v.status, v.author, v.meta, v.created_at, h.public_id
		FROM view_member m
		JOIN requirement_version v ON v.id = m.requirement_version_id
		JOIN requirement_head h ON h.base_id = v.base_id
		WHERE m.view_id = $1
		ORDER BY h.public_id ASC
	`

	rows, err := r.db.Query(ctx, query, viewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get view members: %w", err)
	}
	defer rows.Close()

	var versions []*models.RequirementVersion
	for rows.Next() {
		v := &models.RequirementVersion{}
		if err := rows.Scan(
			&v.ID, &v.BaseID, &v.TreeID, &v.ParentID, &v.PrevVersionID, &v.VersionNumber,
			&v.Level, &v.Priority, &v.FunctionalType, &v.ValidationMethod, &v.Name, &v.Definition,
			&v.Status, &v.Author, &v.Meta, &v.CreatedAt, &v.PublicID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan view member: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view members: %w", err)
	}

	return versions, nil
}
