package models

import (
	"time"

	"github.com/google/uuid"
)

// ReqCollection is a named, unversioned set of logical requirements inside a
// workspace. Members reference base IDs so a collection always shows chain
// heads. Maps to: req_collection table
type ReqCollection struct {
	ID          uuid.UUID `db:"id" json:"id"`
	WorkspaceID uuid.UUID `db:"workspace_id" json:"workspace_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Populated on reads; stored in req_collection_member.
	MemberBaseIDs []uuid.UUID `db:"-" json:"member_base_ids,omitempty"`
}
