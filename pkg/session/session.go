// Package session holds the authentication state of the explorer.
//
// A Store starts anonymous. Login moves it to pending, then to authenticated
// (with a bearer token) or rejected (with the server's rejection body). A
// transport failure is returned to the caller and leaves the previous state
// in place. Logout returns to anonymous and runs the registered hooks, which
// the explorer uses to empty the resource cache.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
)

// Credentials are the login form values.
type Credentials struct {
	Username string
	Password string
}

// Authenticator is the part of the transport the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
}

// Snapshot is a copy of the session state. Token is set iff Status is
// StatusAuthenticated; Rejection iff Status is StatusRejected. A session
// whose token has expired is reported as anonymous, keeping Username and
// ExpiresAt.
type Snapshot struct {
	Status    Status         `json:"status"`
	Username  string         `json:"username,omitempty"`
	Token     string         `json:"-"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
	Rejection *api.Rejection `json:"rejection,omitempty"`
}

// ErrNoLoginResult is returned when the transport reports neither a result
// nor an error.
var ErrNoLoginResult = errors.New("login returned no result")

// Store is the process-wide session.
type Store struct {
	auth   Authenticator
	logger *log.Logger
	now    func() time.Time

	mu       sync.RWMutex
	state    Snapshot
	attempt  uint64
	onLogout []func()
}

// New creates an anonymous session. A nil logger discards messages.
func New(auth Authenticator, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		auth:   auth,
		logger: logger,
		now:    time.Now,
		state:  Snapshot{Status: StatusAnonymous},
	}
}

// Login authenticates with the transport. A rejection is a normal outcome
// reported in the snapshot; only transport failures are returned as errors,
// in which case the session keeps the state it had before the attempt.
func (s *Store) Login(ctx context.Context, creds Credentials) (Snapshot, error) {
	s.mu.Lock()
	previous := s.state
	s.attempt++
	attempt := s.attempt
	s.state = Snapshot{Status: StatusPending, Username: creds.Username}
	s.mu.Unlock()

	res, err := s.auth.Login(ctx, creds.Username, creds.Password)
	if err == nil && res == nil {
		err = ErrNoLoginResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt {
		// superseded by a newer login or a logout
		if err != nil {
			return s.snapshotLocked(), err
		}
		return s.snapshotLocked(), nil
	}

	switch {
	case err != nil:
		s.state = previous
		s.logger.Printf("session: login of %q failed: %v", creds.Username, err)
		return s.snapshotLocked(), err
	case res.Rejected:
		s.state = Snapshot{Status: StatusRejected, Username: creds.Username, Rejection: res.Rejection}
		s.logger.Printf("session: login of %q rejected", creds.Username)
	default:
		s.state = Snapshot{
			Status:    StatusAuthenticated,
			Username:  creds.Username,
			Token:     res.Token,
			ExpiresAt: tokenExpiry(res.Token),
		}
		s.logger.Printf("session: %q authenticated", creds.Username)
	}
	return s.snapshotLocked(), nil
}

// Logout discards the token and runs the logout hooks.
func (s *Store) Logout() {
	s.mu.Lock()
	s.attempt++
	s.state = Snapshot{Status: StatusAnonymous}
	hooks := make([]func(), len(s.onLogout))
	copy(hooks, s.onLogout)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// OnLogout registers a hook run after every logout.
func (s *Store) OnLogout(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, hook)
}

// IsAuthenticated reports whether the session holds a token that has not
// expired.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedLocked()
}

// Token returns the bearer token of an authenticated session.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return "", false
	}
	return s.state.Token, true
}

// Snapshot returns a copy of the session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.state
	if snap.Status == StatusAuthenticated && !s.authenticatedLocked() {
		snap.Status = StatusAnonymous
		snap.Token = ""
	}
	return snap
}

func (s *Store) authenticatedLocked() bool {
	if s.state.Status != StatusAuthenticated {
		return false
	}
	return s.state.ExpiresAt.IsZero() || s.now().Before(s.state.ExpiresAt)
}

// tokenExpiry reads the exp claim of a JWT bearer token. The signature is
// not verified; the server does that. Opaque tokens never expire here.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
