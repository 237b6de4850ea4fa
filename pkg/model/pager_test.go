package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeElements_KeepsServerOrder(t *testing.T) {
	body := []byte(`{
		"page": 1, "per_page": 10, "next": 0, "previous": 0,
		"elements": [
			{"uuid": "9b1f7e4a-7a4e-4c5c-9f0e-3c1c1a3b0b01", "name": "User B", "revision": 3},
			{"uuid": "9b1f7e4a-7a4e-4c5c-9f0e-3c1c1a3b0b02", "name": "User A", "revision": 1}
		]
	}`)

	var p Pager
	require.NoError(t, json.Unmarshal(body, &p))

	nodes, err := DecodeElements[NodeSummary](&p)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "User B", nodes[0].Name)
	assert.Equal(t, "User A", nodes[1].Name)
	assert.Equal(t, uuid.MustParse("9b1f7e4a-7a4e-4c5c-9f0e-3c1c1a3b0b01"), nodes[0].Uuid)
}

func TestDecodeElements_InvalidElement(t *testing.T) {
	p := Pager{Elements: []json.RawMessage{json.RawMessage(`{"uuid": "not-a-uuid"}`)}}

	_, err := DecodeElements[NodeSummary](&p)
	assert.Error(t, err)
}

func TestRevision_Number(t *testing.T) {
	var r Revision
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"9b1f7e4a-7a4e-4c5c-9f0e-3c1c1a3b0b01","revision":4,"data":{"a":1}}`), &r))

	assert.Equal(t, 4, r.Number())
	assert.JSONEq(t, `{"a":1}`, string(r.Data))
}
