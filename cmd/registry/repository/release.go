package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/specworks/reqregistry/common/db"
	"github.com/specworks/reqregistry/common/errs"
	"github.com/specworks/reqregistry/common/models"
)

// ReleaseRepository handles database operations for releases and their
// member version references.
type ReleaseRepository struct {
	db *db.DB
}

// NewReleaseRepository creates a new release repository
func NewReleaseRepository(db *db.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

const releaseColumns = `
	id, workspace_id, public_id, prev_release_id, draft, description,
	created_by, created_at, finalized_at
`

func scanRelease(row pgx.Row) (*models.Release, error) {
	rel := &models.Release{}
	err := row.Scan(
		&rel.ID,
		&rel.WorkspaceID,
		&rel.PublicID,
		&rel.PrevReleaseID,
		&rel.Draft,
		&rel.Description,
		&rel.CreatedBy,
		&rel.CreatedAt,
		&rel.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// Create inserts a new draft release
func (r *ReleaseRepository) Create(ctx context.Context, rel *models.Release) error {
	query := `
		INSERT INTO release (` + releaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		rel.ID,
		rel.WorkspaceID,
		rel.PublicID,
		rel.PrevReleaseID,
		rel.Draft,
		rel.Description,
		rel.CreatedBy,
		rel.CreatedAt,
		rel.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}

	return nil
}

// GetByID retrieves a release by ID
func (r *ReleaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM release WHERE id = $1`

	rel, err := scanRelease(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("release %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get release: %w", err)
	}

	return rel, nil
}

// ListByWorkspace retrieves all releases in a workspace
func (r *ReleaseRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.Release, error) {
	query := `
		SELECT ` + releaseColumns + `
		FROM release
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer rows.Close()

	var releases []*models.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		releases = append(releases, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating releases: %w", err)
	}

	return releases, nil
}

// SetPrevRelease updates the history link of a draft release
func (r *ReleaseRepository) SetPrevRelease(ctx context.Context, releaseID uuid.UUID, prevReleaseID *uuid.UUID) error {
	query := `
		UPDATE release
		SET prev_release_id = $2
		WHERE id = $1 AND draft = TRUE
	`

	result, err := r.db.Exec(ctx, query, releaseID, prevReleaseID)
	if err != nil {
		return fmt.Errorf("failed to set prev release: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("release %s is not a draft: %w", releaseID, errs.ErrImmutableVersion)
	}

	return nil
}

// lockRelease locks the release row for update and returns its draft flag.
// Every membership or state mutation goes through this lock, so a finalize
// and a member edit racing on the same release serialize instead of
// interleaving.
func lockRelease(ctx context.Context, tx pgx.Tx, releaseID uuid.UUID) (bool, error) {
	var draft bool
	err := tx.QueryRow(ctx, `SELECT draft FROM release WHERE id = $1 FOR UPDATE`, releaseID).Scan(&draft)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("release %s: %w", releaseID, errs.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock release: %w", err)
	}
	return draft, nil
}

// unresolvedMemberGroups returns the alternative groups that still have
// competing parameter versions in any tree touched by the release's
// requirement members. Runs inside the finalize transaction so a link
// committed mid-finalize is seen before the draft flag flips.
func unresolvedMemberGroups(ctx context.Context, tx pgx.Tx, releaseID uuid.UUID) ([]string, error) {
	query := `
		SELECT p.group_id
		FROM release_member m
		JOIN requirement_version mv ON mv.id = m.version_id AND m.kind = 'requirement'
		JOIN requirement_version v ON v.tree_id = mv.tree_id
		JOIN requirement_parameter_link l ON l.requirement_version_id = v.id
		JOIN parameter_version p ON p.id = l.parameter_version_id
		WHERE m.release_id = $1 AND p.group_id <> ''
		GROUP BY p.group_id
		HAVING COUNT(DISTINCT p.id) > 1
		ORDER BY p.group_id
	`

	rows, err := tx.Query(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check member trees: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}

// Finalize flips a draft release to final, one way. The release row is
// locked for update and the abstractness of every member tree is
// re-evaluated in the same transaction, so the guard and the flip commit
// together or not at all.
func (r *ReleaseRepository) Finalize(ctx context.Context, releaseID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		draft, err := lockRelease(ctx, tx, releaseID)
		if err != nil {
			return err
		}
		if !draft {
			return fmt.Errorf("release %s already finalized: %w", releaseID, errs.ErrImmutableVersion)
		}

		groups, err := unresolvedMemberGroups(ctx, tx, releaseID)
		if err != nil {
			return err
		}
		if len(groups) > 0 {
			return fmt.Errorf("release %s has unresolved groups [%s]: %w",
				releaseID, strings.Join(groups, ", "), errs.ErrAbstractTree)
		}

		query := `
			UPDATE release
			SET draft = FALSE, finalized_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query, releaseID); err != nil {
			return fmt.Errorf("failed to finalize release: %w", err)
		}

		return nil
	})
}

// AddMember inserts a member version reference into a draft release. The
// draft check holds the release row lock through the insert, so the member
// cannot land on a release finalizing concurrently.
func (r *ReleaseRepository) AddMember(ctx context.Context, m *models.ReleaseMember) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		draft, err := lockRelease(ctx, tx, m.ReleaseID)
		if err != nil {
			return err
		}
		if !draft {
			return fmt.Errorf("release %s is final: %w", m.ReleaseID, errs.ErrImmutableVersion)
		}

		query := `
			INSERT INTO release_member (release_id, kind, version_id, added_by, added_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, m.ReleaseID, m.Kind, m.VersionID, m.AddedBy, m.AddedAt); err != nil {
			return fmt.Errorf("failed to add release member: %w", err)
		}

		return nil
	})
}

// RemoveMember deletes a member version reference from a draft release
func (r *ReleaseRepository) RemoveMember(ctx context.Context, releaseID, versionID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		draft, err := lockRelease(ctx, tx, releaseID)
		if err != nil {
			return err
		}
		if !draft {
			return fmt.Errorf("release %s is final: %w", releaseID, errs.ErrImmutableVersion)
		}

		query := `
			DELETE FROM release_member
			WHERE release_id = $1 AND version_id = $2
		`
		result, err := tx.Exec(ctx, query, releaseID, versionID)
		if err != nil {
			return fmt.Errorf("failed to remove release member: %w", err)
		}

		if result.RowsAffected() == 0 {
			return fmt.Errorf("release member %s: %w", versionID, errs.ErrNotFound)
		}

		return nil
	})
}

// ListMembers retrieves the member references of a release
func (r *ReleaseRepository) ListMembers(ctx context.Context, releaseID uuid.UUID) ([]*models.ReleaseMember, error) {
	query := `
		SELECT release_id, kind, version_id, added_by, added_at
		FROM release_member
		WHERE release_id = $1
		ORDER BY added_at ASC
	`

	rows, err := r.db.Query(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list release members: %w", err)
	}
	defer rows.Close()

	var members []*models.ReleaseMember
	for rows.Next() {
		m := &models.ReleaseMember{}
		if err := rows.Scan(&m.ReleaseID, &m.Kind, &m.VersionID, &m.AddedBy, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan release member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release members: %w", err)
	}

	return members, nil
}
