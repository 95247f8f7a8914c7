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

// ParameterRepository handles database operations for parameter version
// chains and the requirement-parameter junction queries that feed the
// abstractness evaluator and the view materializer.
type ParameterRepository struct {
	db *db.DB
}

// NewParameterRepository creates a new parameter repository
func NewParameterRepository(db *db.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

const parameterColumns = `
	id, base_id, group_id, prev_version_id, version_number,
	name, type, value, author, meta, created_at
`

func scanParameter(row pgx.Row) (*models.ParameterVersion, error) {
	p := &models.ParameterVersion{}
	err := row.Scan(
		&p.ID,
		&p.BaseID,
		&p.GroupID,
		&p.PrevVersionID,
		&p.VersionNumber,
		&p.Name,
		&p.Type,
		&p.Value,
		&p.Author,
		&p.Meta,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func insertParameterVersion(ctx context.Context, q Querier, p *models.ParameterVersion) error {
	query := `
		INSERT INTO parameter_version (` + parameterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		p.ID,
		p.BaseID,
		p.GroupID,
		p.PrevVersionID,
		p.VersionNumber,
		p.Name,
		p.Type,
		p.Value,
		p.Author,
		p.Meta,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert parameter version: %w", err)
	}

	return nil
}

// CreateChain inserts version 1 of a new logical parameter with its head
// pointer, in one transaction.
func (r *ParameterRepository) CreateChain(ctx context.Context, p *models.ParameterVersion, workspaceID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertParameterVersion(ctx, tx, p); err != nil {
			return err
		}

		query := `
			INSERT INTO parameter_head (base_id, workspace_id, head_id, version_number)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, query, p.BaseID, workspaceID, p.ID, p.VersionNumber); err != nil {
			return fmt.Errorf("failed to insert parameter head: %w", err)
		}

		return nil
	})
}

// AppendVersion appends a new version to an existing chain, advancing the
// head pointer by compare-and-swap. Fails with errs.ErrStaleVersion when
// another writer advanced the head first, and with errs.ErrImmutableVersion
// when the prev version was pinned by a release finalized in the meantime;
// both guards run in the one transaction that commits the append.
func (r *ParameterRepository) AppendVersion(ctx context.Context, p *models.ParameterVersion) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		frozen, err := versionInFinalRelease(ctx, tx, *p.PrevVersionID)
		if err != nil {
			return err
		}
		if frozen {
			return fmt.Errorf("version %s of parameter %s is in a finalized release: %w",
				p.PrevVersionID, p.BaseID, errs.ErrImmutableVersion)
		}

		query := `
			UPDATE parameter_head
			SET head_id = $3, version_number = $4
			WHERE base_id = $1 AND head_id = $2 AND deleted_at IS NULL
			RETURNING version_number
		`

		var newNumber int
		err = tx.QueryRow(ctx, query, p.BaseID, p.PrevVersionID, p.ID, p.VersionNumber).Scan(&newNumber)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("append to chain %s at version %s: %w", p.BaseID, p.PrevVersionID, errs.ErrStaleVersion)
		}
		if err != nil {
			return fmt.Errorf("failed to advance parameter head: %w", err)
		}

		return insertParameterVersion(ctx, tx, p)
	})
}

// GetHead retrieves the chain head pointer for a base ID
func (r *ParameterRepository) GetHead(ctx context.Context, baseID uuid.UUID) (*models.ChainHead, error) {
	query := `
		SELECT base_id, workspace_id, head_id, version_number, '', deleted_at
		FROM parameter_head
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
		return nil, fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter head: %w", err)
	}

	return h, nil
}

// GetVersion retrieves a single version row by ID
func (r *ParameterRepository) GetVersion(ctx context.Context, id uuid.UUID) (*models.ParameterVersion, error) {
	query := `SELECT ` + parameterColumns + ` FROM parameter_version WHERE id = $1`

	p, err := scanParameter(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("parameter version %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter version: %w", err)
	}

	return p, nil
}

// GetChain retrieves all versions of a chain, oldest to newest
func (r *ParameterRepository) GetChain(ctx context.Context, baseID uuid.UUID) ([]*models.ParameterVersion, error) {
	query := `
		SELECT ` + parameterColumns + `
		FROM parameter_version
		WHERE base_id = $1
		ORDER BY version_number ASC
	`

	rows, err := r.db.Query(ctx, query, baseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain: %w", err)
	}
	defer rows.Close()

	var versions []*models.ParameterVersion
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter version: %w", err)
		}
		versions = append(versions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain: %w", err)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}

	return versions, nil
}

// ListByWorkspace retrieves live parameter heads, optionally filtered to one
// alternative group.
func (r *ParameterRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, groupID string) ([]*models.ParameterVersion, error) {
	query := `
		SELECT p.id, p.base_id, p.group_id, p.prev_version_id, p.version_number,
		       p.name, p.type, p.value, p.author, p.meta, p.created_at
		FROM parameter_head h
		JOIN parameter_version p ON p.id = h.head_id
		WHERE h.workspace_id = $1 AND h.deleted_at IS NULL
		  AND ($2 = '' OR p.group_id = $2)
		ORDER BY p.name ASC
	`

	rows, err := r.db.Query(ctx, query, workspaceID, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	defer rows.Close()

	var versions []*models.ParameterVersion
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		versions = append(versions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parameters: %w", err)
	}

	return versions, nil
}

// GroupCountsByTree returns, for every non-empty alternative group reachable
// from the tree through requirement-parameter links, how many distinct
// parameter versions are linked. The abstractness evaluator and the view
// materializer both start from this query; it is never cached.
func (r *ParameterRepository) GroupCountsByTree(ctx context.Context, treeID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT p.group_id, COUNT(DISTINCT p.id)
		FROM parameter_version p
		JOIN requirement_parameter_link l ON l.parameter_version_id = p.id
		JOIN requirement_version v ON v.id = l.requirement_version_id
		WHERE v.tree_id = $1 AND p.group_id <> ''
		GROUP BY p.group_id
	`

	rows, err := r.db.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tree groups: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var group string
		var count int
		if err := rows.Scan(&group, &count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		counts[group] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group counts: %w", err)
	}

	return counts, nil
}

// ListLinkedByRequirementVersion retrieves the parameter versions linked to
// one requirement version.
func (r *ParameterRepository) ListLinkedByRequirementVersion(ctx context.Context, requirementVersionID uuid.UUID) ([]*models.ParameterVersion, error) {
	query := `
		SELECT p.id, p.base_id, p.group_id, p.prev_version_id, p.version_number,
		       p.name, p.type, p.value, p.author, p.meta, p.created_at
		FROM parameter_version p
		JOIN requirement_parameter_link l ON l.parameter_version_id = p.id
		WHERE l.requirement_version_id = $1
		ORDER BY p.name ASC
	`

	rows, err := r.db.Query(ctx, query, requirementVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked parameters: %w", err)
	}
	defer rows.Close()

	var versions []*models.ParameterVersion
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked parameter: %w", err)
		}
		versions = append(versions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked parameters: %w", err)
	}

	return versions, nil
}

// SoftDelete marks a logical parameter deleted
func (r *ParameterRepository) SoftDelete(ctx context.Context, baseID uuid.UUID) error {
	query := `
		UPDATE parameter_head
		SET deleted_at = NOW()
		WHERE base_id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, baseID)
	if err != nil {
		return fmt.Errorf("failed to delete parameter: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("parameter %s: %w", baseID, errs.ErrNotFound)
	}

	return nil
}
