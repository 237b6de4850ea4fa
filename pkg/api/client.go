package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

// Transport is the contract the session and the explorer consume.
type Transport interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ListNodes(ctx context.Context, opts PageOptions, token string) ([]model.NodeSummary, error)
	GetNode(ctx context.Context, id uuid.UUID, token string) (*model.NodeDetail, error)
	CreateNode(ctx context.Context, payload model.NodePayload, token string) (*model.NodeDetail, error)
	ListRevisions(ctx context.Context, id uuid.UUID, token string) ([]model.Revision, error)
	GetRevision(ctx context.Context, id uuid.UUID, revision int, token string) (*model.Revision, error)
}

// Client talks to a gonode server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Transport = (*Client)(nil)

// NewClient creates a client for the server rooted at baseURL. A nil
// httpClient uses http.DefaultClient; timeouts belong to the http.Client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the server root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ParseNodeUUID validates a node identifier taken from a route or a flag.
func ParseNodeUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidUUID, s)
	}
	return id, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, token string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends the request and returns the body of a 2xx response. Any other
// status is reported as a TransportError carrying the body.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, token string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, token)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	body, err := c.do(op, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
