package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType enumerates the entity families that get human-readable public
// IDs. Numbers are workspace-scoped, monotonic and never reissued.
type EntityType string

const (
	EntityRequirement EntityType = "REQ"
	EntityTestCase    EntityType = "TEST"
	EntityRelease     EntityType = "REL"
)

// Valid reports whether the entity type is one of the allocatable families.
func (t EntityType) Valid() bool {
	switch t {
	case EntityRequirement, EntityTestCase, EntityRelease:
		return true
	}
	return false
}

// PublicID renders the literal "{PREFIX}-{n}" form.
func PublicID(t EntityType, n int64) string {
	return fmt.Sprintf("%s-%d", t, n)
}

// Workspace is the top-level tenant. It owns the per-type ID counters;
// everything else in the registry is scoped under one workspace.
// Maps to: workspace table
type Workspace struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
