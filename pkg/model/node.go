package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NodeSummary is a node as returned by the listing endpoint.
type NodeSummary struct {
	Uuid      uuid.UUID `json:"uuid"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Revision  int       `json:"revision"`
	Status    int       `json:"status"`
	Weight    int       `json:"weight"`
	Enabled   bool      `json:"enabled"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeDetail is a node as returned by the item endpoint. It is cached
// independently from NodeSummary, the two are never merged.
type NodeDetail struct {
	NodeSummary

	ParentUuid uuid.UUID       `json:"parent_uuid"`
	SetUuid    uuid.UUID       `json:"set_uuid"`
	Source     uuid.UUID       `json:"source"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	UpdatedBy  uuid.UUID       `json:"updated_by"`
	Data       json.RawMessage `json:"data,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
}

// Revision is one audit row of a node. The server returns the full node
// document for every revision; Revision is the ordinal.
type Revision struct {
	NodeDetail
}

// Number returns the revision ordinal.
func (r Revision) Number() int {
	return r.Revision
}

// NodePayload is the document sent when creating a node.
type NodePayload struct {
	Type    string         `json:"type" yaml:"type"`
	Name    string         `json:"name" yaml:"name"`
	Slug    string         `json:"slug,omitempty" yaml:"slug,omitempty"`
	Status  int            `json:"status,omitempty" yaml:"status,omitempty"`
	Weight  int            `json:"weight,omitempty" yaml:"weight,omitempty"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Data    map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}
