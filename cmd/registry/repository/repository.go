package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so repository
// methods can run standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// versionInFinalRelease reports whether a version row is pinned by a
// non-draft release. It runs inside the caller's append transaction and
// takes a share lock on the covering release rows, so a finalize running
// concurrently (which locks the release row for update) cannot slip
// between this check and the head compare-and-swap.
func versionInFinalRelease(ctx context.Context, tx pgx.Tx, versionID uuid.UUID) (bool, error) {
	query := `
		SELECT rel.draft
		FROM release_member m
		JOIN release rel ON rel.id = m.release_id
		WHERE m.version_id = $1
		FOR SHARE OF rel
	`

	rows, err := tx.Query(ctx, query, versionID)
	if err != nil {
		return false, fmt.Errorf("failed to check release membership: %w", err)
	}
	defer rows.Close()

	frozen := false
	for rows.Next() {
		var draft bool
		if err := rows.Scan(&draft); err != nil {
			return false, fmt.Errorf("failed to scan release membership: %w", err)
		}
		if !draft {
			frozen = true
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating release membership: %w", err)
	}

	return frozen, nil
}
