// Package guard gates route entries on the session and prepares their data.
//
// Every navigation runs through Guard.Enter, a small state machine:
//
//  1. a route requiring authentication entered without an authenticated
//     session is redirected to the login route, carrying the requested path
//     in the "next" query parameter; the target is not rendered;
//  2. otherwise each resource declared by the route is requested from the
//     cache with EnsureFetched, without waiting for it;
//  3. the entry is allowed and the view renders from the cache, possibly in
//     a loading state.
//
// Entering a logout route logs the session out and redirects to login.
//
// Routes are matched with gorilla/mux templates, so key extractors receive
// the route variables and the query of the requested path.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
)

// ErrRouteNotFound is returned for a path no route matches.
var ErrRouteNotFound = errors.New("route not found")

// ErrNotAuthenticated is recorded on decisions redirected to login. It is
// never meant to reach a view.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the part of the session store the guard consults.
type Session interface {
	IsAuthenticated() bool
	Logout()
}

// Cache is the part of the cache store the guard drives.
type Cache interface {
	EnsureFetched(ctx context.Context, key cache.Key, fetch cache.Fetcher) *cache.Call
}

// Match describes a matched route entry.
type Match struct {
	Route *Route
	Path  string
	Vars  map[string]string
	Query url.Values
}

// Resource is a piece of data a route needs before rendering. Resolve maps
// the entry to a cache key and the fetcher able to load it.
type Resource struct {
	Kind    cache.Kind
	Resolve func(m Match) (cache.Key, cache.Fetcher, error)
}

// Route describes one entry of the route table.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
	Logout       bool
	Resources    []Resource
}

// Decision is the result of Guard.Enter.
type Decision struct {
	State    State
	Match    Match
	Redirect string
	Keys     []cache.Key
	Calls    []*cache.Call
	Err      error
}

// Wait waits for every call the entry started.
func (d Decision) Wait(ctx context.Context) error {
	for _, call := range d.Calls {
		if _, err := call.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Options configure a Guard.
type Options struct {
	// LoginPath is where unauthenticated entries are redirected
	LoginPath string

	// LandingPath is where a login without a valid next path lands
	LandingPath string
}

// Guard evaluates route entries.
type Guard struct {
	session Session
	cache   Cache
	opts    Options
	router  *mux.Router
	routes  map[string]*Route
}

// New creates a guard over the given route table. Routes are matched in
// order, so literal paths must precede templated siblings.
func New(session Session, store Cache, opts Options, routes ...Route) (*Guard, error) {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.LandingPath == "" {
		opts.LandingPath = "/"
	}

	g := &Guard{
		session: session,
		cache:   store,
		opts:    opts,
		router:  mux.NewRouter(),
		routes:  make(map[string]*Route, len(routes)),
	}

	for i := range routes {
		route := routes[i]
		if route.Name == "" {
			return nil, fmt.Errorf("route %q has no name", route.Path)
		}
		if _, exists := g.routes[route.Name]; exists {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}
		r := g.router.NewRoute().Name(route.Name).Path(route.Path)
		if err := r.GetError(); err != nil {
			return nil, fmt.Errorf("invalid route %q: %w", route.Name, err)
		}
		g.routes[route.Name] = &route
	}

	return g, nil
}

// Route returns the route registered under name.
func (g *Guard) Route(name string) (*Route, bool) {
	r, ok := g.routes[name]
	return r, ok
}

// URL builds the path of a named route.
func (g *Guard) URL(name string, pairs ...string) (string, error) {
	r := g.router.Get(name)
	if r == nil {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	u, err := r.URLPath(pairs...)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Match resolves target, a path with an optional query, to a route.
func (g *Guard) Match(target string) (Match, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Match{}, fmt.Errorf("%w: %v", ErrRouteNotFound, err)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	var rm mux.RouteMatch
	req := &http.Request{Method: http.MethodGet, URL: u}
	if !g.router.Match(req, &rm) || rm.Route == nil {
		return Match{}, fmt.Errorf("%w: %s", ErrRouteNotFound, u.Path)
	}

	vars := rm.Vars
	if vars == nil {
		vars = map[string]string{}
	}

	return Match{
		Route: g.routes[rm.Route.GetName()],
		Path:  u.Path,
		Vars:  vars,
		Query: u.Query(),
	}, nil
}

// Enter evaluates a navigation to target.
func (g *Guard) Enter(ctx context.Context, target string) (Decision, error) {
	d := Decision{State: StateEvaluating}

	m, err := g.Match(target)
	if err != nil {
		return d, err
	}
	d.Match = m

	if m.Route.Logout {
		g.session.Logout()
		d.State = StateRedirectedToLogin
		d.Redirect = g.opts.LoginPath
		return d, nil
	}

	if m.Route.RequiresAuth && !g.session.IsAuthenticated() {
		d.State = StateRedirectedToLogin
		d.Redirect = g.opts.LoginPath + "?" + url.Values{"next": {target}}.Encode()
		d.Err = ErrNotAuthenticated
		return d, nil
	}

	for _, res := range m.Route.Resources {
		key, fetch, err := res.Resolve(m)
		if err != nil {
			return d, fmt.Errorf("resolving %s for %s: %w", res.Kind, m.Path, err)
		}
		d.Keys = append(d.Keys, key)
		d.Calls = append(d.Calls, g.cache.EnsureFetched(ctx, key, fetch))
	}

	d.State = StateAllowed
	return d, nil
}

// AfterLogin returns where to go once logged in: next when it is a local
// path of a route other than login or logout, the landing path otherwise.
func (g *Guard) AfterLogin(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return g.opts.LandingPath
	}

	m, err := g.Match(next)
	if err != nil || m.Route.Logout || m.Path == g.opts.LoginPath {
		return g.opts.LandingPath
	}
	return next
}

// LoginPath returns the login route path.
func (g *Guard) LoginPath() string {
	return g.opts.LoginPath
}
