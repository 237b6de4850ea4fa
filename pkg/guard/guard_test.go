package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
)

type fakeSession struct {
	authenticated bool
	logouts       int
}

func (f *fakeSession) IsAuthenticated() bool { return f.authenticated }

func (f *fakeSession) Logout() {
	f.logouts++
	f.authenticated = false
}

type fixture struct {
	session *fakeSession
	store   *cache.Store
	guard   *Guard
	fetches atomic.Int32
	release chan struct{}
}

func newFixture(t *testing.T, authenticated bool) *fixture {
	t.Helper()
	f := &fixture{
		session: &fakeSession{authenticated: authenticated},
		store:   cache.New(nil),
		release: make(chan struct{}),
	}

	fetch := func(ctx context.Context) (any, error) {
		f.fetches.Add(1)
		<-f.release
		return "data", nil
	}

	nodes := Resource{Kind: "nodes", Resolve: func(m Match) (cache.Key, cache.Fetcher, error) {
		perPage := m.Query.Get("per_page")
		if perPage == "" {
			perPage = "10"
		}
		return cache.Key{Kind: "nodes", ID: "per_page=" + perPage}, fetch, nil
	}}
	node := Resource{Kind: "node", Resolve: func(m Match) (cache.Key, cache.Fetcher, error) {
		if m.Vars["node_uuid"] == "00000000-0000-0000-0000-000000000000" {
			return cache.Key{}, nil, errors.New("nil uuid")
		}
		return cache.Key{Kind: "node", ID: m.Vars["node_uuid"]}, fetch, nil
	}}

	g, err := New(f.session, f.store, Options{},
		Route{Name: "home", Path: "/", RequiresAuth: true},
		Route{Name: "login", Path: "/login"},
		Route{Name: "logout", Path: "/logout", Logout: true},
		Route{Name: "nodes", Path: "/nodes", RequiresAuth: true, Resources: []Resource{nodes}},
		Route{Name: "node_create", Path: "/nodes/create", RequiresAuth: true},
		Route{Name: "node", Path: "/nodes/{node_uuid:[0-9a-f-]{36}}", RequiresAuth: true, Resources: []Resource{node}},
	)
	require.NoError(t, err)
	f.guard = g
	t.Cleanup(func() {
		select {
		case <-f.release:
		default:
			close(f.release)
		}
	})
	return f
}

func TestEnter_RedirectsWhenNotAuthenticated(t *testing.T) {
	targets := []string{"/", "/nodes", "/nodes?per_page=20", "/nodes/create", "/nodes/3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10"}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			f := newFixture(t, false)

			d, err := f.guard.Enter(context.Background(), target)
			require.NoError(t, err)

			assert.Equal(t, StateRedirectedToLogin, d.State)
			assert.ErrorIs(t, d.Err, ErrNotAuthenticated)
			assert.Contains(t, d.Redirect, "/login?next=")
			assert.Empty(t, d.Calls)
			assert.Zero(t, f.store.Len())
			assert.Zero(t, f.fetches.Load())
		})
	}
}

func TestEnter_RedirectPreservesRequestedPath(t *testing.T) {
	f := newFixture(t, false)

	d, err := f.guard.Enter(context.Background(), "/nodes?per_page=20")
	require.NoError(t, err)
	assert.Equal(t, "/login?next=%2Fnodes%3Fper_page%3D20", d.Redirect)
}

func TestEnter_PublicRouteIsAllowed(t *testing.T) {
	f := newFixture(t, false)

	d, err := f.guard.Enter(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, StateAllowed, d.State)
	assert.Equal(t, "login", d.Match.Route.Name)
}

func TestEnter_StartsRequiredFetchesWithoutBlocking(t *testing.T) {
	f := newFixture(t, true)

	d, err := f.guard.Enter(context.Background(), "/nodes?per_page=20")
	require.NoError(t, err)

	assert.Equal(t, StateAllowed, d.State)
	require.Len(t, d.Calls, 1)
	key := cache.Key{Kind: "nodes", ID: "per_page=20"}
	assert.Equal(t, []cache.Key{key}, d.Keys)
	assert.Equal(t, cache.StatusLoading, f.store.Peek(key).Status)

	// re-entering while loading does not fetch again
	d2, err := f.guard.Enter(context.Background(), "/nodes?per_page=20")
	require.NoError(t, err)
	assert.Same(t, d.Calls[0], d2.Calls[0])

	close(f.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))

	assert.Equal(t, cache.StatusPresent, f.store.Peek(key).Status)
	assert.Equal(t, int32(1), f.fetches.Load())
}

func TestEnter_RouteVariablesReachKeyExtractor(t *testing.T) {
	f := newFixture(t, true)
	id := "3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10"

	d, err := f.guard.Enter(context.Background(), "/nodes/"+id)
	require.NoError(t, err)
	assert.Equal(t, "node", d.Match.Route.Name)
	assert.Equal(t, id, d.Match.Vars["node_uuid"])
	assert.Equal(t, []cache.Key{{Kind: "node", ID: id}}, d.Keys)
}

func TestEnter_LiteralRouteWinsOverTemplate(t *testing.T) {
	f := newFixture(t, true)

	d, err := f.guard.Enter(context.Background(), "/nodes/create")
	require.NoError(t, err)
	assert.Equal(t, "node_create", d.Match.Route.Name)
	assert.Empty(t, d.Calls)
}

func TestEnter_ResolveError(t *testing.T) {
	f := newFixture(t, true)

	d, err := f.guard.Enter(context.Background(), "/nodes/00000000-0000-0000-0000-000000000000")
	assert.Error(t, err)
	assert.Equal(t, StateEvaluating, d.State)
}

func TestEnter_UnknownRoute(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.guard.Enter(context.Background(), "/nodes/not-a-uuid")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestEnter_Logout(t *testing.T) {
	f := newFixture(t, true)

	d, err := f.guard.Enter(context.Background(), "/logout")
	require.NoError(t, err)

	assert.Equal(t, StateRedirectedToLogin, d.State)
	assert.Equal(t, "/login", d.Redirect)
	assert.Equal(t, 1, f.session.logouts)
	assert.False(t, f.session.authenticated)
}

func TestAfterLogin(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/"},
		{next: "/nodes?per_page=20", want: "/nodes?per_page=20"},
		{next: "/logout", want: "/"},
		{next: "/login", want: "/"},
		{next: "https://evil.example/", want: "/"},
		{next: "//evil.example/", want: "/"},
		{next: "/unknown", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, f.guard.AfterLogin(tt.next))
		})
	}
}

func TestURL(t *testing.T) {
	f := newFixture(t, false)

	u, err := f.guard.URL("node", "node_uuid", "3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10")
	require.NoError(t, err)
	assert.Equal(t, "/nodes/3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10", u)

	_, err = f.guard.URL("missing")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := New(&fakeSession{}, cache.New(nil), Options{},
		Route{Name: "a", Path: "/a"},
		Route{Name: "a", Path: "/b"},
	)
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "redirected_to_login", StateRedirectedToLogin.String())
	assert.Equal(t, "allowed", StateAllowed.String())
}
