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

// RequirementRepository handles database operations for requirement version
// chains. Version rows are insert-only; the head pointer row is the single
// mutable record per chain and is advanced by compare-and-swap.
type RequirementRepository struct {
	db *db.DB
}

// NewRequirementRepository creates a new requirement repository
func NewRequirementRepository(db *db.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

const requirementColumns = `
	id, base_id, tree_id, parent_id, prev_version_id, version_number,
	level, priority, functional_type, validation_method, name, definition,
	status, author, meta, created_at
`

func scanRequirement(row pgx.Row) (*models.RequirementVersion, error) {
	v := &models.RequirementVersion{}
	err := row.Scan(
		&v.ID,
		&v.BaseID,
		&v.TreeID,
		&v.ParentID,
		&v.PrevVersionID,
		&v.VersionNumber,
		&v.Level,
		&v.Priority,
		&v.FunctionalType,
		&v.ValidationMethod,
		&v.Name,
		&v.Definition,
		&v.Status,
		&v.Author,
		&v.Meta,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func insertRequirementVersion(ctx context.Context, q Querier, v *models.RequirementVersion) error {
	query := `
		INSERT INTO requirement_version (` + requirementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := q.Exec(ctx, query,
		v.ID,
		v.BaseID,
		v.TreeID,
		v.ParentID,
		v.PrevVersionID,
		v.VersionNumber,
		v.Level,
		v.Priority,
		v.FunctionalType,
		v.ValidationMethod,
		v.Name,
		v.Definition,
		v.Status,
		v.Author,
		v.Meta,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert requirement version: %w", err)
	}

	return nil
}

// CreateChain inserts version 1 of a new logical requirement along with its
// head pointer, in one transaction.
func (r *RequirementRepository) CreateChain(ctx context.Context, v *models.RequirementVersion, workspaceID uuid.UUID, publicID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertRequirementVersion(ctx, tx, v); err != nil {
			return err
		}

		query := `
			INSERT INTO requirement_head (base_id, workspace_id, head_id, version_number, public_id)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, query, v.BaseID, workspaceID, v.ID, v.VersionNumber, publicID); err != nil {
			return fmt.Errorf("failed to insert requirement head: %w", err)
		}

		return nil
	})
}

// AppendVersion appends a new version to an existing chain. The head pointer
// is advanced with an optimistic-concurrency UPDATE: if v.PrevVersionID is
// no longer the head, zero rows match and the append fails with
// errs.ErrStaleVersion. The release-immutability guard runs in the same
// transaction: a prev version pinned by a non-draft release fails with
// errs.ErrImmutableVersion even when the finalize committed a moment ago.
func (r *RequirementRepository) AppendVersion(ctx context.Context, v *models.RequirementVersion) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		frozen, err := versionInFinalRelease(ctx, tx, *v.PrevVersionID)
		if err != nil {
			return err
		}
		if frozen {
			return fmt.Errorf("version %s of requirement %s is in a finalized release: %w",
				v.PrevVersionID, v.BaseID, errs.ErrImmutableVersion)
		}

		query := `
			UPDATE requirement_head
			SET head_id = $3, version_number = $4
			WHERE base_id = $1 AND head_id = $2 AND deleted_at IS NULL
			RETURNING version_number
		`

		var newNumber int
		err = tx.QueryRow(ctx, query, v.BaseID, v.PrevVersionID, v.ID, v.VersionNumber).Scan(&newNumber)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("append to chain %s at version %s: %w", v.BaseID, v.PrevVersionID, errs.ErrStaleVersion)
		}
		if err != nil {
			return fmt.Errorf("failed to advance requirement head: %w", err)
		}

		return insertRequirementVersion(ctx, tx, v)
	})
}

// GetHead retrieves the chain head pointer for a base ID
func (r *RequirementRepository) GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error) {
	query := `
		SELECT base_id, workspace_id, head_id, version_number, public_id, deleted_at
		FROM requirement_head
		WHERE base_id = $1
	`

	h := &models.ChainHead{}
	err := r.db.QueryRow(ctx, query, baseID).Scan(
		&h.BaseID,
		&h.WorkspaceID,
		&h.HeadID,
		&h.VersionNumber,
		&h.PublicID,
		&h.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement head: %w", err)
	}

	return h, nil
}

// GetVersion retrieves a single version row by ID
func (r *RequirementRepository) GetVersion(ctx context.Context, id uuid.UUID) (*models.RequirementVersion, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirement_version WHERE id = $1`

	v, err := scanRequirement(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("requirement version %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement version: %w", err)
	}

	return v, nil
}

// GetChain retrieves all versions of a chain, oldest to newest
func (r *RequirementRepository) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.RequirementVersion, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM requirement_version
		WHERE base_id = $1
		ORDER BY version_number ASC
	`

	rows, err := r.db.Query(ctx, query, baseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain: %w", err)
	}
	defer rows.Close()

	var versions []*models.RequirementVersion
	for rows.Next() {
		v, err := scanRequirement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan requirement version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain: %w", err)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}

	return versions, nil
}

// ListHeadsByTree retrieves the current head version of every live chain in
// a tree, with public IDs attached.
func (r *RequirementRepository) ListHeadsByTree(ctx context.Context, treeID uuid.UUID) ([]*models.RequirementVersion, error) {
	query := `
		SELECT v.id, v.base_id, v.tree_id, v.parent_id, v.prev_version_id, v.version_number,
		       v.level, v.priority, v.functional_type, v.validation_method, v.name, v.definition,
		       v.status, v.author, v.meta, v.created_at, h.public_id
		FROM requirement_head h
		JOIN requirement_version v ON v.id = h.head_id
		WHERE v.tree_id = $1 AND h.deleted_at IS NULL
		ORDER BY h.public_id ASC
	`

	rows, err := r.db.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree heads: %w", err)
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
			return nil, fmt.Errorf("failed to scan tree head: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tree heads: %w", err)
	}

	return versions, nil
}

// Search finds live chain heads in a workspace whose public ID, name or
// definition matches the search term. An empty term lists everything up to
// the limit.
func (r *RequirementRepository) Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]*models.RequirementVersion, error) {
	query := `
		SELECT v.id, v.base_id, v.tree_id, v.parent_id, v.prev_version_id, v.version_number,
		       v.level, v.priority, v.functional_type, v.validation_method, v.name, v.definition,
		       v.status, v.author, v.meta, v.created_at, h.public_id
		FROM requirement_head h
		JOIN requirement_version v ON v.id = h.head_id
		WHERE h.workspace_id = $1 AND h.deleted_at IS NULL
		  AND ($2 = '' OR h.public_id ILIKE '%' || $2 || '%'
		       OR v.name ILIKE '%' || $2 || '%'
		       OR v.definition ILIKE '%' || $2 || '%')
		ORDER BY h.public_id ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, workspaceID, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search requirements: %w", err)
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
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return versions, nil
}

// SoftDelete marks a logical requirement deleted. Its version rows and
// public ID number remain; the number is never reissued.
func (r *RequirementRepository) SoftDelete(ctx context.Context, baseID uuid.UUID) error {
	query := `
		UPDATE requirement_head
		SET deleted_at = NOW()
		WHERE base_id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, baseID)
	if err != nil {
		return fmt.Errorf("failed to delete requirement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("requirement %s: %w", baseID, errs.ErrNotFound)
	}

	return nil
}

// LinkParameter inserts one requirement-parameter junction row
func (r *RequirementRepository) LinkParameter(ctx context.Context, link *models.RequirementParameterLink) error {
	query := `
		INSERT INTO requirement_parameter_link (requirement_version_id, parameter_version_id, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		link.RequirementVersionID,
		link.ParameterVersionID,
		link.CreatedBy,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to link parameter: %w", err)
	}

	return nil
}

// UnlinkParameter removes one junction row
func (r *RequirementRepository) UnlinkParameter(ctx context.Context, requirementVersionID, parameterVersionID uuid.UUID) error {
	query := `
		DELETE FROM requirement_parameter_link
		WHERE requirement_version_id = $1 AND parameter_version_id = $2
	`

	result, err := r.db.Exec(ctx, query, requirementVersionID, parameterVersionID)
	if err != nil {
		return fmt.Errorf("failed to unlink parameter: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("link %s -> %s: %w", requirementVersionID, parameterVersionID, errs.ErrNotFound)
	}

	return nil
}
