package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/config"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/guard"
)

// Route names
const (
	RouteHome     = "home"
	RouteLogin    = "login"
	RouteLogout   = "logout"
	RouteNodes    = "nodes"
	RouteCreate   = "nodes_create"
	RouteNode     = "node"
	RouteRevision = "revision"
)

// Cache kinds
const (
	KindNodes     cache.Kind = "nodes"
	KindNode      cache.Kind = "node"
	KindRevisions cache.Kind = "revisions"
	KindRevision  cache.Kind = "revision"
)

const uuidPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

// ErrInvalidPage is returned for pagination parameters outside the range the
// server accepts.
var ErrInvalidPage = errors.New("invalid pagination")

// ErrInvalidRevision is returned for revision numbers that do not fit an int.
var ErrInvalidRevision = errors.New("invalid revision")

func (e *Explorer) routes() []guard.Route {
	return []guard.Route{
		{Name: RouteHome, Path: "/", RequiresAuth: true},
		{Name: RouteLogin, Path: "/login"},
		{Name: RouteLogout, Path: "/logout", Logout: true},
		{
			Name:         RouteNodes,
			Path:         "/nodes",
			RequiresAuth: true,
			Resources:    []guard.Resource{{Kind: KindNodes, Resolve: e.resolveNodes}},
		},
		{Name: RouteCreate, Path: "/nodes/create", RequiresAuth: true},
		{
			Name:         RouteNode,
			Path:         "/nodes/{node_uuid:" + uuidPattern + "}",
			RequiresAuth: true,
			Resources: []guard.Resource{
				{Kind: KindNode, Resolve: e.resolveNode},
				{Kind: KindRevisions, Resolve: e.resolveRevisions},
			},
		},
		{
			Name:         RouteRevision,
			Path:         "/nodes/{node_uuid:" + uuidPattern + "}/revisions/{rev:[0-9]+}",
			RequiresAuth: true,
			Resources:    []guard.Resource{{Kind: KindRevision, Resolve: e.resolveRevision}},
		},
	}
}

// PageOptions reads per_page and page from a query, defaulting the page size
// to the configured one.
func (e *Explorer) PageOptions(query url.Values) (api.PageOptions, error) {
	opts := api.PageOptions{PerPage: e.perPage}

	if v := query.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > config.MaxPerPage {
			return opts, fmt.Errorf("%w: per_page %q", ErrInvalidPage, v)
		}
		opts.PerPage = n
	}
	if v := query.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("%w: page %q", ErrInvalidPage, v)
		}
		opts.Page = n
	}
	return opts, nil
}

// NodesKey is the cache key of a node listing.
func NodesKey(opts api.PageOptions) cache.Key {
	return cache.Key{Kind: KindNodes, ID: opts.String()}
}

// NodeKey is the cache key of a node document.
func NodeKey(id string) cache.Key {
	return cache.Key{Kind: KindNode, ID: id}
}

// RevisionsKey is the cache key of the revision history of a node.
func RevisionsKey(id string) cache.Key {
	return cache.Key{Kind: KindRevisions, ID: id}
}

// RevisionKey is the cache key of a single revision.
func RevisionKey(id string, revision int) cache.Key {
	return cache.Key{Kind: KindRevision, ID: fmt.Sprintf("%s@%d", id, revision)}
}

func (e *Explorer) resolveNodes(m guard.Match) (cache.Key, cache.Fetcher, error) {
	opts, err := e.PageOptions(m.Query)
	if err != nil {
		return cache.Key{}, nil, err
	}
	return NodesKey(opts), e.fetchNodes(opts), nil
}

func (e *Explorer) resolveNode(m guard.Match) (cache.Key, cache.Fetcher, error) {
	id, err := api.ParseNodeUUID(m.Vars["node_uuid"])
	if err != nil {
		return cache.Key{}, nil, err
	}
	return NodeKey(id.String()), func(ctx context.Context) (any, error) {
		return e.transport.GetNode(ctx, id, e.token())
	}, nil
}

func (e *Explorer) resolveRevisions(m guard.Match) (cache.Key, cache.Fetcher, error) {
	id, err := api.ParseNodeUUID(m.Vars["node_uuid"])
	if err != nil {
		return cache.Key{}, nil, err
	}
	return RevisionsKey(id.String()), func(ctx context.Context) (any, error) {
		return e.transport.ListRevisions(ctx, id, e.token())
	}, nil
}

func (e *Explorer) resolveRevision(m guard.Match) (cache.Key, cache.Fetcher, error) {
	id, err := api.ParseNodeUUID(m.Vars["node_uuid"])
	if err != nil {
		return cache.Key{}, nil, err
	}
	number, err := strconv.Atoi(m.Vars["rev"])
	if err != nil {
		return cache.Key{}, nil, fmt.Errorf("%w %q: %v", ErrInvalidRevision, m.Vars["rev"], err)
	}
	return RevisionKey(id.String(), number), func(ctx context.Context) (any, error) {
		return e.transport.GetRevision(ctx, id, number, e.token())
	}, nil
}

func (e *Explorer) fetchNodes(opts api.PageOptions) cache.Fetcher {
	return func(ctx context.Context) (any, error) {
		return e.transport.ListNodes(ctx, opts, e.token())
	}
}
