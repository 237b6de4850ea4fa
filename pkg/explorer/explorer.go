package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/audit"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/guard"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/session"
)

// ErrNotAuthenticated is returned by actions that need a logged-in session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Options configure an Explorer.
type Options struct {
	// Transport is the gonode API client
	Transport api.Transport

	// Server names the API in activity records
	Server string

	// PerPage is the default page size of node listings
	PerPage int

	// Logger receives process messages, discarded when nil
	Logger *log.Logger

	// Audit receives activity records, disabled when nil
	Audit *audit.Logger
}

// Explorer is the process-wide console state.
type Explorer struct {
	transport api.Transport
	server    string
	perPage   int
	logger    *log.Logger
	audit     *audit.Logger

	session *session.Store
	cache   *cache.Store
	guard   *guard.Guard
}

// New creates an anonymous explorer with an empty cache.
func New(opts Options) (*Explorer, error) {
	if opts.Transport == nil {
		return nil, errors.New("explorer: a transport is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 10
	}

	e := &Explorer{
		transport: opts.Transport,
		server:    opts.Server,
		perPage:   opts.PerPage,
		logger:    opts.Logger,
		audit:     opts.Audit,
		session:   session.New(opts.Transport, opts.Logger),
		cache:     cache.New(opts.Logger),
	}
	e.session.OnLogout(e.cache.Reset)

	g, err := guard.New(e.session, e.cache, guard.Options{LoginPath: "/login", LandingPath: "/nodes"}, e.routes()...)
	if err != nil {
		return nil, fmt.Errorf("explorer: %w", err)
	}
	e.guard = g

	return e, nil
}

// Session returns the session store.
func (e *Explorer) Session() *session.Store {
	return e.session
}

// Cache returns the resource cache.
func (e *Explorer) Cache() *cache.Store {
	return e.cache
}

// Server returns the API root recorded in activity records.
func (e *Explorer) Server() string {
	return e.server
}

// Guard returns the navigation guard.
func (e *Explorer) Guard() *guard.Guard {
	return e.guard
}

// Enter runs a navigation to target through the guard.
func (e *Explorer) Enter(ctx context.Context, target string) (guard.Decision, error) {
	user := e.session.Snapshot().Username

	d, err := e.guard.Enter(ctx, target)
	if err == nil && d.Match.Route.Logout {
		e.audit.Log(audit.LogoutEvent{User: user, Server: e.server})
	}
	return d, err
}

// Peek returns the cache entry for key.
func (e *Explorer) Peek(key cache.Key) cache.Entry {
	return e.cache.Peek(key)
}

// Login authenticates the session and records the attempt.
func (e *Explorer) Login(ctx context.Context, creds session.Credentials) (session.Snapshot, error) {
	snap, err := e.session.Login(ctx, creds)

	event := audit.LoginEvent{User: creds.Username, Server: e.server}
	switch {
	case err != nil:
		event.Outcome = audit.OutcomeFailed
		event.ErrorMessage = err.Error()
	case snap.Status == session.StatusRejected:
		event.Outcome = audit.OutcomeRejected
		if snap.Rejection != nil {
			event.ErrorMessage = snap.Rejection.Message
		}
	case snap.Status == session.StatusAuthenticated:
		event.Outcome = audit.OutcomeAuthenticated
	default:
		// superseded by a newer attempt
		return snap, err
	}
	e.audit.Log(event)

	return snap, err
}

// Logout ends the session. The cache is emptied by the session hook.
func (e *Explorer) Logout() {
	user := e.session.Snapshot().Username
	e.session.Logout()
	e.audit.Log(audit.LogoutEvent{User: user, Server: e.server})
}

// AfterLogin returns the path to navigate to once logged in.
func (e *Explorer) AfterLogin(next string) string {
	return e.guard.AfterLogin(next)
}

// NodePath returns the console path of a node.
func (e *Explorer) NodePath(id uuid.UUID) string {
	path, err := e.guard.URL(RouteNode, "node_uuid", id.String())
	if err != nil {
		return "/nodes/" + id.String()
	}
	return path
}

// CreateNode creates a node, invalidates every node listing so the next
// visit refetches, and returns the node with the path of its detail view.
func (e *Explorer) CreateNode(ctx context.Context, payload model.NodePayload) (*model.NodeDetail, string, error) {
	token, ok := e.session.Token()
	if !ok {
		return nil, "", ErrNotAuthenticated
	}
	user := e.session.Snapshot().Username

	node, err := e.transport.CreateNode(ctx, payload, token)
	if err != nil {
		e.audit.Log(audit.CreateNodeEvent{User: user, NodeType: payload.Type, NodeName: payload.Name, Error: err.Error()})
		return nil, "", err
	}

	e.cache.Invalidate(KindNodes)
	e.audit.Log(audit.CreateNodeEvent{
		User:     user,
		NodeType: node.Type,
		NodeName: node.Name,
		NodeUUID: node.Uuid.String(),
		Success:  true,
	})
	e.logger.Printf("explorer: created node %s", node.Uuid)

	return node, e.NodePath(node.Uuid), nil
}

// Nodes returns a listing page, fetching it through the cache.
func (e *Explorer) Nodes(ctx context.Context, opts api.PageOptions) ([]model.NodeSummary, error) {
	if opts.PerPage == 0 {
		opts.PerPage = e.perPage
	}
	call := e.cache.EnsureFetched(ctx, NodesKey(opts), e.fetchNodes(opts))
	return cache.Wait[[]model.NodeSummary](ctx, call)
}

// Node returns a node document, fetching it through the cache.
func (e *Explorer) Node(ctx context.Context, id uuid.UUID) (*model.NodeDetail, error) {
	call := cache.Ensure(ctx, e.cache, NodeKey(id.String()), func(ctx context.Context) (*model.NodeDetail, error) {
		return e.transport.GetNode(ctx, id, e.token())
	})
	return cache.Wait[*model.NodeDetail](ctx, call)
}

// Revisions returns the revision history of a node, fetching it through the
// cache.
func (e *Explorer) Revisions(ctx context.Context, id uuid.UUID) ([]model.Revision, error) {
	call := cache.Ensure(ctx, e.cache, RevisionsKey(id.String()), func(ctx context.Context) ([]model.Revision, error) {
		return e.transport.ListRevisions(ctx, id, e.token())
	})
	return cache.Wait[[]model.Revision](ctx, call)
}

func (e *Explorer) token() string {
	token, _ := e.session.Token()
	return token
}
