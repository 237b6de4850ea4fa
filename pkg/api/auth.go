package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Rejection is the body of a denied login. The server answers 403 with a
// JSON document carrying a message; plain text bodies are kept as the message.
type Rejection struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
	Raw     string `json:"-"`
}

// LoginResult is the outcome of a login call that reached the server and got
// an answer it understood. A denial is a result, not an error.
type LoginResult struct {
	Token     string
	Rejected  bool
	Rejection *Rejection
}

// Login posts the credentials as a form. A 2xx answer yields a token, a 403
// yields a rejection; anything else is a TransportError.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "login"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/login", nil, strings.NewReader(form.Encode()), "")
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(op, req)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) && terr.StatusCode == http.StatusForbidden {
			return &LoginResult{Rejected: true, Rejection: parseRejection(body)}, nil
		}
		return nil, err
	}

	token := parseToken(body)
	if token == "" {
		return nil, &TransportError{Op: op, StatusCode: http.StatusOK, Err: errors.New("empty token in login response")}
	}
	return &LoginResult{Token: token}, nil
}

// parseToken accepts the raw token gonode writes, a JSON string, or a
// {"token": "..."} document.
func parseToken(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	switch trimmed[0] {
	case '{':
		var doc struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
			return doc.Token
		}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return trimmed
}

func parseRejection(body []byte) *Rejection {
	raw := strings.TrimSpace(string(body))
	r := &Rejection{Raw: raw}
	if err := json.Unmarshal([]byte(raw), r); err != nil || r.Message == "" {
		r.Message = raw
	}
	return r
}

// Ping checks that the server answers on /hello.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/hello", nil, nil, "")
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	_, err = c.do("ping", req)
	return err
}
