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

// CollectionRepository handles database operations for requirement
// collections and their membership rows.
type CollectionRepository struct {
	db *db.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *db.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create inserts a collection and its initial members in one transaction
func (r *CollectionRepository) Create(ctx context.Context, col *models.ReqCollection) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO req_collection (id, workspace_id, name, description, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.Exec(ctx, query,
			col.ID,
			col.WorkspaceID,
			col.Name,
			col.Description,
			col.CreatedBy,
			col.CreatedAt,
			col.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		return insertCollectionMembers(ctx, tx, col.ID, col.MemberBaseIDs)
	})
}

// Update replaces a collection's fields and membership in one transaction
func (r *CollectionRepository) Update(ctx context.Context, col *models.ReqCollection) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE req_collection
			SET name = $2, description = $3, updated_at = NOW()
			WHERE id = $1
		`
		result, err := tx.Exec(ctx, query, col.ID, col.Name, col.Description)
		if err != nil {
			return fmt.Errorf("failed to update collection: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("collection %s: %w", col.ID, errs.ErrNotFound)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM req_collection_member WHERE collection_id = $1`, col.ID); err != nil {
			return fmt.Errorf("failed to clear collection members: %w", err)
		}

		return insertCollectionMembers(ctx, tx, col.ID, col.MemberBaseIDs)
	})
}

func insertCollectionMembers(ctx context.Context, q Querier, collectionID uuid.UUID, baseIDs []uuid.UUID) error {
	for _, baseID := range baseIDs {
		query := `
			INSERT INTO req_collection_member (collection_id, base_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`
		if _, err := q.Exec(ctx, query, collectionID, baseID); err != nil {
			return fmt.Errorf("failed to insert collection member: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a collection with its members
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReqCollection, error) {
	query := `
		SELECT id, workspace_id, name, description, created_by, created_at, updated_at
		FROM req_collection
		WHERE id = $1
	`

	col := &models.ReqCollection{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&col.ID,
		&col.WorkspaceID,
		&col.Name,
		&col.Description,
		&col.CreatedBy,
		&col.CreatedAt,
		&col.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	memberQuery := `
		SELECT base_id FROM req_collection_member
		WHERE collection_id = $1
		ORDER BY base_id ASC
	`
	rows, err := r.db.Query(ctx, memberQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var baseID uuid.UUID
		if err := rows.Scan(&baseID); err != nil {
			return nil, fmt.Errorf("failed to scan collection member: %w", err)
		}
		col.MemberBaseIDs = append(col.MemberBaseIDs, baseID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection members: %w", err)
	}

	return col, nil
}

// ListByWorkspace retrieves all collections in a workspace (without members)
func (r *CollectionRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.ReqCollection, error) {
	query := `
		SELECT id, workspace_id, name, description, created_by, created_at, updated_at
		FROM req_collection
		WHERE workspace_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*models.ReqCollection
	for rows.Next() {
		col := &models.ReqCollection{}
		if err := rows.Scan(
			&col.ID,
			&col.WorkspaceID,
			&col.Name,
			&col.Description,
			&col.CreatedBy,
			&col.CreatedAt,
			&col.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return collections, nil
}

// Delete removes a collection and its membership rows
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM req_collection_member WHERE collection_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete collection members: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM req_collection WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("collection %s: %w", id, errs.ErrNotFound)
		}

		return nil
	})
}
