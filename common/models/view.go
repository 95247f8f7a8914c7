package models

import (
	"time"

	"github.com/google/uuid"
)

// ReqTreeView is an immutable, concrete projection of a requirement tree:
// exactly one parameter chosen per reachable alternative group, plus an
// inclusion rule. Views bind to the specific version IDs current at
// creation time and are never mutated or deduplicated afterwards.
// Maps to: req_tree_view table
type ReqTreeView struct {
	ID     uuid.UUID `db:"id" json:"id"`
	TreeID uuid.UUID `db:"tree_id" json:"tree_id"`
	Name   string    `db:"name" json:"name,omitempty"`

	// Rule is an opaque boolean CEL expression evaluated per requirement
	// against the selected parameters. Empty keeps every requirement.
	Rule string `db:"rule" json:"rule,omitempty"`

	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ViewSelection records the parameter version chosen for one alternative
// group of a view. Maps to: view_selection table
type ViewSelection struct {
	ViewID             uuid.UUID `db:"view_id" json:"view_id"`
	GroupID            string    `db:"group_id" json:"group_id"`
	ParameterVersionID uuid.UUID `db:"parameter_version_id" json:"parameter_version_id"`
}

// ViewMember records a requirement version included in a view after rule
// evaluation. Maps to: view_member table
type ViewMember struct {
	ViewID               uuid.UUID `db:"view_id" json:"view_id"`
	RequirementVersionID uuid.UUID `db:"requirement_version_id" json:"requirement_version_id"`
}

// Selection is the request-side pair for CreateView. A list rather than a
// map so duplicate groups can be detected and rejected as ambiguous.
type Selection struct {
	GroupID            string    `json:"group_id"`
	ParameterVersionID uuid.UUID `json:"parameter_version_id"`
}

// ViewDocument is the materialized, cacheable form of a view.
type ViewDocument struct {
	View         *ReqTreeView          `json:"view"`
	Selections   []ViewSelection       `json:"selections"`
	Requirements []*RequirementVersion `json:"requirements"`
	Parameters   []*ParameterVersion   `json:"parameters"`
}
