package explorer_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/api/apitest"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/audit"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/guard"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/session"
)

type fixture struct {
	fake     *apitest.Server
	explorer *explorer.Explorer
	audit    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fake := apitest.New(apitest.Options{})
	fake.AddUser("admin", "admin")
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	var buf bytes.Buffer
	e, err := explorer.New(explorer.Options{
		Transport: api.NewClient(ts.URL, ts.Client()),
		Server:    ts.URL,
		PerPage:   10,
		Audit:     audit.NewLogger(&buf, true),
	})
	require.NoError(t, err)

	return &fixture{fake: fake, explorer: e, audit: &buf}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	snap, err := f.explorer.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	require.Equal(t, session.StatusAuthenticated, snap.Status)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := explorer.New(explorer.Options{})
	assert.Error(t, err)
}

func TestEnter_AnonymousIsRedirected(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/", "/nodes", "/nodes/create", "/nodes/3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10"} {
		d, err := f.explorer.Enter(context.Background(), target)
		require.NoError(t, err, target)
		assert.Equal(t, guard.StateRedirectedToLogin, d.State, target)
		assert.Contains(t, d.Redirect, "/login?next=", target)
		assert.Empty(t, d.Calls, target)
	}

	assert.Zero(t, f.fake.Hits(apitest.RouteNodes))
	assert.Zero(t, f.fake.Hits(apitest.RouteNode))
	assert.Zero(t, f.explorer.Cache().Len())
}

func TestEnter_LoginIsPublic(t *testing.T) {
	f := newFixture(t)

	d, err := f.explorer.Enter(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, guard.StateAllowed, d.State)
}

func TestEnter_DeduplicatesListing(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "User 1"})
	f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "User 2"})

	arrived, release := f.fake.Hold(apitest.RouteNodes)

	first, err := f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	<-arrived

	second, err := f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	assert.Equal(t, cache.StatusLoading, f.explorer.Peek(first.Keys[0]).Status)
	assert.Same(t, first.Calls[0], second.Calls[0])

	release()
	require.NoError(t, first.Wait(waitCtx(t)))

	assert.Equal(t, 1, f.fake.Hits(apitest.RouteNodes))

	entry := f.explorer.Peek(explorer.NodesKey(api.PageOptions{PerPage: 10}))
	nodes, ok := cache.Value[[]model.NodeSummary](entry)
	require.True(t, ok)
	require.Len(t, nodes, 2)
	assert.Equal(t, "User 1", nodes[0].Name)

	third, err := f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	require.NoError(t, third.Wait(waitCtx(t)))
	assert.Equal(t, 1, f.fake.Hits(apitest.RouteNodes))
}

func TestEnter_CarriesBearerToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	d, err := f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	require.NoError(t, d.Wait(waitCtx(t)))

	token, ok := f.explorer.Session().Token()
	require.True(t, ok)
	assert.Equal(t, token, f.fake.LastToken(apitest.RouteNodes))
}

func TestEnter_PageSizesAreSeparateEntries(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	for _, target := range []string{"/nodes", "/nodes?per_page=5", "/nodes?per_page=5&page=2"} {
		d, err := f.explorer.Enter(context.Background(), target)
		require.NoError(t, err)
		require.NoError(t, d.Wait(waitCtx(t)))
	}

	assert.Equal(t, 3, f.fake.Hits(apitest.RouteNodes))
	assert.Equal(t, 3, f.explorer.Cache().Len())
}

func TestEnter_InvalidPageSize(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.explorer.Enter(context.Background(), "/nodes?per_page=500")
	assert.ErrorIs(t, err, explorer.ErrInvalidPage)
	assert.Zero(t, f.fake.Hits(apitest.RouteNodes))
}

func TestEnter_RevisionOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	node := f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "first"})

	_, err := f.explorer.Enter(context.Background(), f.explorer.NodePath(node.Uuid)+"/revisions/99999999999999999999")
	assert.ErrorIs(t, err, explorer.ErrInvalidRevision)
	assert.Zero(t, f.fake.Hits(apitest.RouteRevision))
}

func TestEnter_NodeDetail(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	node := f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "first"})
	f.fake.ReviseNode(node.Uuid, "second")

	d, err := f.explorer.Enter(context.Background(), f.explorer.NodePath(node.Uuid))
	require.NoError(t, err)
	require.Equal(t, guard.StateAllowed, d.State)
	require.Equal(t, []cache.Key{
		explorer.NodeKey(node.Uuid.String()),
		explorer.RevisionsKey(node.Uuid.String()),
	}, d.Keys)
	require.NoError(t, d.Wait(waitCtx(t)))

	detail, ok := cache.Value[*model.NodeDetail](f.explorer.Peek(d.Keys[0]))
	require.True(t, ok)
	assert.Equal(t, "second", detail.Name)

	revisions, ok := cache.Value[[]model.Revision](f.explorer.Peek(d.Keys[1]))
	require.True(t, ok)
	require.Len(t, revisions, 2)
	assert.Equal(t, 2, revisions[0].Number())
	assert.Equal(t, 1, revisions[1].Number())

	rev, err := f.explorer.Enter(context.Background(), f.explorer.NodePath(node.Uuid)+"/revisions/1")
	require.NoError(t, err)
	require.NoError(t, rev.Wait(waitCtx(t)))
	assert.Equal(t, explorer.RevisionKey(node.Uuid.String(), 1), rev.Keys[0])
	first, ok := cache.Value[*model.Revision](f.explorer.Peek(rev.Keys[0]))
	require.True(t, ok)
	assert.Equal(t, "first", first.Name)
}

func TestEnter_ErroredEntryIsRetriedOnNextEntry(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	node := f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "flaky"})
	f.fake.Fail(apitest.RouteNode, http.StatusInternalServerError)

	d, err := f.explorer.Enter(context.Background(), f.explorer.NodePath(node.Uuid))
	require.NoError(t, err)
	assert.Error(t, d.Wait(waitCtx(t)))

	entry := f.explorer.Peek(explorer.NodeKey(node.Uuid.String()))
	assert.Equal(t, cache.StatusErrored, entry.Status)
	var terr *api.TransportError
	require.ErrorAs(t, entry.Err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)

	f.fake.Fail(apitest.RouteNode, 0)
	d, err = f.explorer.Enter(context.Background(), f.explorer.NodePath(node.Uuid))
	require.NoError(t, err)
	require.NoError(t, d.Wait(waitCtx(t)))
	assert.Equal(t, cache.StatusPresent, f.explorer.Peek(explorer.NodeKey(node.Uuid.String())).Status)
	assert.Equal(t, 2, f.fake.Hits(apitest.RouteNode))
}

func TestLogout_ClearsSessionAndCache(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	d, err := f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	require.NoError(t, d.Wait(waitCtx(t)))
	require.Equal(t, 1, f.explorer.Cache().Len())

	f.explorer.Logout()

	assert.False(t, f.explorer.Session().IsAuthenticated())
	assert.Zero(t, f.explorer.Cache().Len())
	assert.Equal(t, cache.StatusAbsent, f.explorer.Peek(d.Keys[0]).Status)
	assert.Contains(t, f.audit.String(), "admin logged out")

	d, err = f.explorer.Enter(context.Background(), "/nodes")
	require.NoError(t, err)
	assert.Equal(t, guard.StateRedirectedToLogin, d.State)
}

func TestLogoutRoute(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	d, err := f.explorer.Enter(context.Background(), "/logout")
	require.NoError(t, err)
	assert.Equal(t, guard.StateRedirectedToLogin, d.State)
	assert.Equal(t, "/login", d.Redirect)
	assert.False(t, f.explorer.Session().IsAuthenticated())
	assert.Contains(t, f.audit.String(), "admin logged out")
}

func TestLogin_Audit(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		assert.Contains(t, f.audit.String(), "admin successfully authenticated")
	})

	t.Run("rejected", func(t *testing.T) {
		f := newFixture(t)
		snap, err := f.explorer.Login(context.Background(), session.Credentials{Username: "admin", Password: "nope"})
		require.NoError(t, err)
		assert.Equal(t, session.StatusRejected, snap.Status)
		assert.Contains(t, f.audit.String(), "admin was rejected")
	})

	t.Run("failed", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Fail(apitest.RouteLogin, http.StatusBadGateway)
		snap, err := f.explorer.Login(context.Background(), session.Credentials{Username: "admin", Password: "admin"})
		require.Error(t, err)
		assert.Equal(t, session.StatusAnonymous, snap.Status)
		assert.Contains(t, f.audit.String(), "admin failed to authenticate")
	})
}

func TestCreateNode_InvalidatesListings(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := waitCtx(t)
	f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "existing"})

	nodes, err := f.explorer.Nodes(ctx, api.PageOptions{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node, path, err := f.explorer.CreateNode(ctx, model.NodePayload{Type: "core.user", Name: "created", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "/nodes/"+node.Uuid.String(), path)
	assert.Equal(t, cache.StatusAbsent, f.explorer.Peek(explorer.NodesKey(api.PageOptions{PerPage: 10})).Status)

	nodes, err = f.explorer.Nodes(ctx, api.PageOptions{})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "created", nodes[1].Name)
	assert.Equal(t, 2, f.fake.Hits(apitest.RouteNodes))
	assert.Contains(t, f.audit.String(), "admin created core.user node "+node.Uuid.String())

	d, err := f.explorer.Enter(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, guard.StateAllowed, d.State)
}

func TestCreateNode_Errors(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.explorer.CreateNode(context.Background(), model.NodePayload{Type: "core.user", Name: "x"})
		assert.ErrorIs(t, err, explorer.ErrNotAuthenticated)
		assert.Zero(t, f.fake.Hits(apitest.RouteCreate))
	})

	t.Run("server refuses", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		_, _, err := f.explorer.CreateNode(context.Background(), model.NodePayload{Name: "missing type"})
		var terr *api.TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, http.StatusPreconditionFailed, terr.StatusCode)
		assert.Contains(t, f.audit.String(), "failed to create")
	})
}

func TestNodeAndRevisions(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := waitCtx(t)
	node := f.fake.AddNode(model.NodePayload{Type: "core.user", Name: "n"})

	detail, err := f.explorer.Node(ctx, node.Uuid)
	require.NoError(t, err)
	assert.Equal(t, node.Uuid, detail.Uuid)

	revisions, err := f.explorer.Revisions(ctx, node.Uuid)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)

	_, err = f.explorer.Node(ctx, node.Uuid)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fake.Hits(apitest.RouteNode))
}

func TestAfterLogin(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "/nodes?per_page=5", f.explorer.AfterLogin("/nodes?per_page=5"))
	assert.Equal(t, "/nodes", f.explorer.AfterLogin(""))
	assert.Equal(t, "/nodes", f.explorer.AfterLogin("/logout"))
	assert.Equal(t, "/nodes", f.explorer.AfterLogin("https://example.com/nodes"))
}
