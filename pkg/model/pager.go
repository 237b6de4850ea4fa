package model

import "encoding/json"

// Pager is the envelope of every listing endpoint. Elements are kept raw so
// each endpoint decodes them into its own element type.
type Pager struct {
	Elements []json.RawMessage `json:"elements"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	Next     int               `json:"next"`
	Previous int               `json:"previous"`
}

// DecodeElements decodes the pager elements in server order.
func DecodeElements[T any](p *Pager) ([]T, error) {
	out := make([]T, 0, len(p.Elements))
	for _, raw := range p.Elements {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
