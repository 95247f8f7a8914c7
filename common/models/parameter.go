package models

import (
	"time"

	"github.com/google/uuid"
)

// ParameterVersion is one immutable row of a parameter's version chain.
// Lifecycle is independent of requirements; association happens through
// requirement_parameter_link rows.
//
// GroupID names the alternative group. Versions sharing a non-empty GroupID
// are mutually exclusive choices; a group with more than one linked version
// makes every referencing tree abstract. An empty GroupID means the
// parameter stands alone and can never cause abstractness.
// Maps to: parameter_version table
type ParameterVersion struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BaseID        uuid.UUID  `db:"base_id" json:"base_id"`
	GroupID       string     `db:"group_id" json:"group_id,omitempty"`
	PrevVersionID *uuid.UUID `db:"prev_version_id" json:"prev_version_id,omitempty"`
	VersionNumber int        `db:"version_number" json:"version_number"`

	Name  string `db:"name" json:"name"`
	Type  string `db:"type" json:"type"`
	Value string `db:"value" json:"value"`

	Author string                 `db:"author" json:"author"`
	Meta   map[string]interface{} `db:"meta" json:"meta,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Document returns the parameter fields as a map for rule evaluation.
func (p *ParameterVersion) Document() map[string]interface{} {
	return map[string]interface{}{
		"name":  p.Name,
		"type":  p.Type,
		"value": p.Value,
		"group": p.GroupID,
		"meta":  p.Meta,
	}
}

// GroupAlternative is one row of a group listing: which parameter versions
// currently compete inside one alternative group.
type GroupAlternative struct {
	GroupID   string    `db:"group_id" json:"group_id"`
	VersionID uuid.UUID `db:"version_id" json:"version_id"`
	BaseID    uuid.UUID `db:"base_id" json:"base_id"`
	Name      string    `db:"name" json:"name"`
}
