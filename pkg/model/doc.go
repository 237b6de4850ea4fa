// Package model defines the wire models of the gonode REST API as seen by the explorer.
//
// The models are immutable snapshots: a value returned by the API is stored in
// the resource cache as-is and handed to views by copy.
//
// # Core Models
//
//   - NodeSummary: one element of the GET /nodes pager
//   - NodeDetail: the GET /nodes/{uuid} document
//   - Revision: one element of the GET /nodes/{uuid}/revisions pager
//   - Pager: the envelope used by every listing endpoint
//   - NodePayload: the body sent to POST /nodes
package model
