package models

import (
	"time"

	"github.com/google/uuid"
)

// TestCase is a workspace-scoped verification record with a TEST-n public
// ID, optionally linked to the logical requirement it verifies. Test cases
// are not versioned; deleting one never frees its number.
// Maps to: test_case table
type TestCase struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	WorkspaceID uuid.UUID  `db:"workspace_id" json:"workspace_id"`
	PublicID    string     `db:"public_id" json:"public_id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`

	// Logical requirement under test (base ID, not a pinned version).
	RequirementBaseID *uuid.UUID `db:"requirement_base_id" json:"requirement_base_id,omitempty"`

	Status    string     `db:"status" json:"status"`
	Author    string     `db:"author" json:"author"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
