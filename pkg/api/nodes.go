package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

// PageOptions are the pagination parameters of a listing. Zero values are
// left to the server defaults.
type PageOptions struct {
	PerPage int
	Page    int
}

// Values encodes the options as query parameters.
func (o PageOptions) Values() url.Values {
	v := url.Values{}
	if o.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	return v
}

// String is a stable encoding of the options, usable as a cache identifier.
func (o PageOptions) String() string {
	return o.Values().Encode()
}

// ListNodes fetches one page of nodes, in server order.
func (c *Client) ListNodes(ctx context.Context, opts PageOptions, token string) ([]model.NodeSummary, error) {
	const op = "list nodes"

	var pager model.Pager
	if err := c.getJSON(ctx, op, "/nodes", opts.Values(), token, &pager); err != nil {
		return nil, err
	}

	nodes, err := model.DecodeElements[model.NodeSummary](&pager)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode elements: %w", err)}
	}
	return nodes, nil
}

// GetNode fetches a node document.
func (c *Client) GetNode(ctx context.Context, id uuid.UUID, token string) (*model.NodeDetail, error) {
	node := &model.NodeDetail{}
	if err := c.getJSON(ctx, "get node", "/nodes/"+id.String(), nil, token, node); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateNode posts a new node and returns the stored document.
func (c *Client) CreateNode(ctx context.Context, payload model.NodePayload, token string) (*model.NodeDetail, error) {
	const op = "create node"

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/nodes", nil, bytes.NewReader(data), token)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}

	node := &model.NodeDetail{}
	if err := json.Unmarshal(body, node); err != nil {
		return nil, &TransportError{Op: op, StatusCode: http.StatusCreated, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return node, nil
}

// ListRevisions fetches the revisions of a node, in server order.
func (c *Client) ListRevisions(ctx context.Context, id uuid.UUID, token string) ([]model.Revision, error) {
	const op = "list revisions"

	var pager model.Pager
	if err := c.getJSON(ctx, op, "/nodes/"+id.String()+"/revisions", nil, token, &pager); err != nil {
		return nil, err
	}

	revisions, err := model.DecodeElements[model.Revision](&pager)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode elements: %w", err)}
	}
	return revisions, nil
}

// GetRevision fetches a single revision of a node.
func (c *Client) GetRevision(ctx context.Context, id uuid.UUID, revision int, token string) (*model.Revision, error) {
	rev := &model.Revision{}
	path := fmt.Sprintf("/nodes/%s/revisions/%d", id, revision)
	if err := c.getJSON(ctx, "get revision", path, nil, token, rev); err != nil {
		return nil, err
	}
	return rev, nil
}
