package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberKind distinguishes what a release member row points at.
type MemberKind string

const (
	MemberRequirement MemberKind = "requirement"
	MemberParameter   MemberKind = "parameter"
)

// Release groups requirement/parameter versions. Members stay editable while
// Draft is true; finalization is one-way and freezes every member version.
// PrevReleaseID links releases into an acyclic history chain.
// Maps to: release table
type Release struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	WorkspaceID   uuid.UUID  `db:"workspace_id" json:"workspace_id"`
	PublicID      string     `db:"public_id" json:"public_id"`
	PrevReleaseID *uuid.UUID `db:"prev_release_id" json:"prev_release_id,omitempty"`
	Draft         bool       `db:"draft" json:"draft"`
	Description   string     `db:"description" json:"description,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	FinalizedAt   *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
}

// ReleaseMember references one version row by ID (non-owning).
// Maps to: release_member table
type ReleaseMember struct {
	ReleaseID uuid.UUID  `db:"release_id" json:"release_id"`
	Kind      MemberKind `db:"kind" json:"kind"`
	VersionID uuid.UUID  `db:"version_id" json:"version_id"`
	AddedBy   string     `db:"added_by" json:"added_by"`
	AddedAt   time.Time  `db:"added_at" json:"added_at"`
}
