package models

import (
	"time"

	"github.com/google/uuid"
)

// RequirementTree is a standalone container of requirement chains. Trees are
// not versioned; every requirement belongs to exactly one tree.
// Maps to: requirement_tree table
type RequirementTree struct {
	ID          uuid.UUID `db:"id" json:"id"`
	WorkspaceID uuid.UUID `db:"workspace_id" json:"workspace_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TreeDetail is the read model of one tree: the record, the current head
// version of every live chain in it, and whether unresolved alternative
// groups leave it abstract.
type TreeDetail struct {
	Tree         *RequirementTree      `json:"tree"`
	Requirements []*RequirementVersion `json:"requirements"`
	Abstract     bool                  `json:"abstract"`
}

// RequirementVersion is one immutable row of a requirement's version chain.
// Rows sharing BaseID form the chain; PrevVersionID points at the previous
// row (nil for version 1). Maps to: requirement_version table
type RequirementVersion struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BaseID        uuid.UUID  `db:"base_id" json:"base_id"`
	TreeID        uuid.UUID  `db:"tree_id" json:"tree_id"`
	ParentID      *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	PrevVersionID *uuid.UUID `db:"prev_version_id" json:"prev_version_id,omitempty"`
	VersionNumber int        `db:"version_number" json:"version_number"`

	// PublicID lives on the chain head; populated by joins on reads.
	PublicID string `db:"-" json:"public_id,omitempty"`

	Level            int    `db:"level" json:"level"`
	Priority         string `db:"priority" json:"priority"`
	FunctionalType   string `db:"functional_type" json:"functional_type"`
	ValidationMethod string `db:"validation_method" json:"validation_method"`
	Name             string `db:"name" json:"name"`
	Definition       string `db:"definition" json:"definition"`
	Status           string `db:"status" json:"status"`

	Author string                 `db:"author" json:"author"`
	Meta   map[string]interface{} `db:"meta" json:"meta,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Document returns the editable fields as a JSON-shaped map. PATCH-style
// edits apply RFC-6902 operations against this document; the result becomes
// the next version.
func (v *RequirementVersion) Document() map[string]interface{} {
	return map[string]interface{}{
		"name":              v.Name,
		"definition":        v.Definition,
		"level":             v.Level,
		"priority":          v.Priority,
		"functional_type":   v.FunctionalType,
		"validation_method": v.ValidationMethod,
		"status":            v.Status,
		"meta":              v.Meta,
	}
}

// ChainHead is the mutable head pointer of one version chain, the only
// mutable state in the store. Appends advance it by compare-and-swap.
// Maps to: requirement_head / parameter_head tables
type ChainHead struct {
	BaseID        uuid.UUID  `db:"base_id" json:"base_id"`
	WorkspaceID   uuid.UUID  `db:"workspace_id" json:"workspace_id"`
	HeadID        uuid.UUID  `db:"head_id" json:"head_id"`
	VersionNumber int        `db:"version_number" json:"version_number"`
	PublicID      string     `db:"public_id" json:"public_id,omitempty"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Deleted reports whether the logical entity was soft-deleted. The public
// ID number behind a deleted entity is never reissued.
func (h *ChainHead) Deleted() bool {
	return h.DeletedAt != nil
}

// RequirementParameterLink associates one requirement version with one
// parameter version. Explicit junction rows keep both sides independently
// queryable. Maps to: requirement_parameter_link table
type RequirementParameterLink struct {
	RequirementVersionID uuid.UUID `db:"requirement_version_id" json:"requirement_version_id"`
	ParameterVersionID   uuid.UUID `db:"parameter_version_id" json:"parameter_version_id"`
	CreatedBy            string    `db:"created_by" json:"created_by"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}
