// Package acceptance runs the feature files of the explorer against an
// in-process gonode API.
package acceptance

import (
	"fmt"
	"net/http/httptest"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/api/apitest"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
)

// TestContext is one explorer talking to one fake gonode API.
type TestContext struct {
	API      *apitest.Server
	Server   *httptest.Server
	Explorer *explorer.Explorer

	releases map[string]func()
}

// NewTestContext starts a fake API and an anonymous explorer in front of it.
func NewTestContext() (*TestContext, error) {
	fake := apitest.New(apitest.Options{})
	ts := httptest.NewServer(fake)

	e, err := explorer.New(explorer.Options{
		Transport: api.NewClient(ts.URL, ts.Client()),
		Server:    ts.URL,
		PerPage:   10,
	})
	if err != nil {
		ts.Close()
		return nil, fmt.Errorf("failed to create explorer: %w", err)
	}

	return &TestContext{
		API:      fake,
		Server:   ts,
		Explorer: e,
		releases: make(map[string]func()),
	}, nil
}

// Close releases held requests and stops the fake API.
func (tc *TestContext) Close() {
	for _, release := range tc.releases {
		release()
	}
	tc.Server.Close()
}
