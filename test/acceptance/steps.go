package acceptance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/guard"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/session"
)

const stepTimeout = 5 * time.Second

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc       *TestContext
	decision guard.Decision
	snapshot session.Snapshot
	loginErr error
}

// NewStepsContext creates a new steps context
func NewStepsContext() *StepsContext {
	return &StepsContext{}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if s.tc != nil {
			s.tc.Close()
		}
		return ctx, nil
	})

	// API steps
	sc.Step(`^a gonode API with user "([^"]*)" and password "([^"]*)"$`, s.aGonodeAPIWithUser)
	sc.Step(`^the API holds (\d+) nodes$`, s.theAPIHoldsNodes)
	sc.Step(`^the API holds requests to "([^"]*)"$`, s.theAPIHoldsRequestsTo)
	sc.Step(`^the API releases requests to "([^"]*)"$`, s.theAPIReleasesRequestsTo)
	sc.Step(`^the API fails requests to "([^"]*)" with status (\d+)$`, s.theAPIFailsRequestsTo)
	sc.Step(`^the API stops failing requests to "([^"]*)"$`, s.theAPIStopsFailingRequestsTo)
	sc.Step(`^the API has received a request to "([^"]*)"$`, s.theAPIHasReceivedARequestTo)
	sc.Step(`^the API has received (\d+) requests? to "([^"]*)"$`, s.theAPIHasReceivedRequestsTo)
	sc.Step(`^the API saw the session token on "([^"]*)"$`, s.theAPISawTheSessionTokenOn)

	// Session steps
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogInAs)
	sc.Step(`^the session is "([^"]*)"$`, s.theSessionIs)
	sc.Step(`^the login returned no error$`, s.theLoginReturnedNoError)
	sc.Step(`^the login returned an error$`, s.theLoginReturnedAnError)
	sc.Step(`^the rejection message contains "([^"]*)"$`, s.theRejectionMessageContains)

	// Navigation steps
	sc.Step(`^I enter "([^"]*)"$`, s.iEnter)
	sc.Step(`^I enter "([^"]*)" and wait$`, s.iEnterAndWait)
	sc.Step(`^I wait for the entry$`, s.iWaitForTheEntry)
	sc.Step(`^I am redirected to "([^"]*)"$`, s.iAmRedirectedTo)
	sc.Step(`^the entry is allowed$`, s.theEntryIsAllowed)
	sc.Step(`^I create a node named "([^"]*)"$`, s.iCreateANodeNamed)

	// Cache steps
	sc.Step(`^the "([^"]*)" entry for "([^"]*)" is (absent|loading|present|errored)$`, s.theEntryIs)
	sc.Step(`^the "([^"]*)" entry for "([^"]*)" holds (\d+) nodes$`, s.theEntryHoldsNodes)
	sc.Step(`^the cache is empty$`, s.theCacheIsEmpty)
}

// API steps

func (s *StepsContext) aGonodeAPIWithUser(username, password string) error {
	tc, err := NewTestContext()
	if err != nil {
		return err
	}
	s.tc = tc
	s.tc.API.AddUser(username, password)
	return nil
}

func (s *StepsContext) theAPIHoldsNodes(count int) error {
	for i := 1; i <= count; i++ {
		s.tc.API.AddNode(model.NodePayload{Type: "core.user", Name: fmt.Sprintf("User %d", i), Enabled: true})
	}
	return nil
}

func (s *StepsContext) theAPIHoldsRequestsTo(route string) error {
	_, release := s.tc.API.Hold(route)
	s.tc.releases[route] = release
	return nil
}

func (s *StepsContext) theAPIReleasesRequestsTo(route string) error {
	release, ok := s.tc.releases[route]
	if !ok {
		return fmt.Errorf("requests to %q are not held", route)
	}
	release()
	delete(s.tc.releases, route)
	return nil
}

func (s *StepsContext) theAPIFailsRequestsTo(route string, status int) error {
	s.tc.API.Fail(route, status)
	return nil
}

func (s *StepsContext) theAPIStopsFailingRequestsTo(route string) error {
	s.tc.API.Fail(route, 0)
	return nil
}

func (s *StepsContext) theAPIHasReceivedARequestTo(route string) error {
	deadline := time.Now().Add(stepTimeout)
	for s.tc.API.Hits(route) == 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("no request reached %q", route)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (s *StepsContext) theAPIHasReceivedRequestsTo(count int, route string) error {
	if hits := s.tc.API.Hits(route); hits != count {
		return fmt.Errorf("expected %d requests to %q, got %d", count, route, hits)
	}
	return nil
}

func (s *StepsContext) theAPISawTheSessionTokenOn(route string) error {
	token, ok := s.tc.Explorer.Session().Token()
	if !ok {
		return errors.New("session holds no token")
	}
	if seen := s.tc.API.LastToken(route); seen != token {
		return fmt.Errorf("API saw token %q on %q, session holds %q", seen, route, token)
	}
	return nil
}

// Session steps

func (s *StepsContext) iLogInAs(username, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	s.snapshot, s.loginErr = s.tc.Explorer.Login(ctx, session.Credentials{Username: username, Password: password})
	return nil
}

func (s *StepsContext) theSessionIs(status string) error {
	want, err := session.StatusString(status)
	if err != nil {
		return err
	}
	if got := s.tc.Explorer.Session().Snapshot().Status; got != want {
		return fmt.Errorf("expected session %s, got %s", want, got)
	}
	if want == session.StatusAuthenticated && !s.tc.Explorer.Session().IsAuthenticated() {
		return errors.New("session is not authenticated")
	}
	return nil
}

func (s *StepsContext) theLoginReturnedNoError() error {
	if s.loginErr != nil {
		return fmt.Errorf("login returned %v", s.loginErr)
	}
	return nil
}

func (s *StepsContext) theLoginReturnedAnError() error {
	if s.loginErr == nil {
		return errors.New("login returned no error")
	}
	return nil
}

func (s *StepsContext) theRejectionMessageContains(text string) error {
	if s.snapshot.Rejection == nil {
		return errors.New("login was not rejected")
	}
	if !strings.Contains(s.snapshot.Rejection.Message, text) {
		return fmt.Errorf("rejection %q does not contain %q", s.snapshot.Rejection.Message, text)
	}
	return nil
}

// Navigation steps

func (s *StepsContext) iEnter(target string) error {
	d, err := s.tc.Explorer.Enter(context.Background(), target)
	if err != nil {
		return err
	}
	s.decision = d
	return nil
}

func (s *StepsContext) iEnterAndWait(target string) error {
	if err := s.iEnter(target); err != nil {
		return err
	}
	return s.iWaitForTheEntry()
}

// iWaitForTheEntry waits for the fetches of the last entry. Fetch errors
// are left to the cache steps.
func (s *StepsContext) iWaitForTheEntry() error {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	for _, call := range s.decision.Calls {
		select {
		case <-call.Done():
		case <-ctx.Done():
			return fmt.Errorf("fetch of %s did not complete", call.Key())
		}
	}
	return nil
}

func (s *StepsContext) iAmRedirectedTo(target string) error {
	if s.decision.State != guard.StateRedirectedToLogin {
		return fmt.Errorf("expected a redirect, entry is %s", s.decision.State)
	}
	if s.decision.Redirect != target {
		return fmt.Errorf("expected a redirect to %q, got %q", target, s.decision.Redirect)
	}
	return nil
}

func (s *StepsContext) theEntryIsAllowed() error {
	if s.decision.State != guard.StateAllowed {
		return fmt.Errorf("expected the entry to be allowed, got %s", s.decision.State)
	}
	return nil
}

func (s *StepsContext) iCreateANodeNamed(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	_, _, err := s.tc.Explorer.CreateNode(ctx, model.NodePayload{Type: "core.user", Name: name, Enabled: true})
	return err
}

// Cache steps

func (s *StepsContext) listingKey(kind, target string) (cache.Key, error) {
	if cache.Kind(kind) != explorer.KindNodes {
		return cache.Key{}, fmt.Errorf("unsupported kind %q", kind)
	}
	u, err := url.Parse(target)
	if err != nil {
		return cache.Key{}, err
	}
	opts, err := s.tc.Explorer.PageOptions(u.Query())
	if err != nil {
		return cache.Key{}, err
	}
	return explorer.NodesKey(opts), nil
}

func (s *StepsContext) theEntryIs(kind, target, status string) error {
	key, err := s.listingKey(kind, target)
	if err != nil {
		return err
	}
	want, err := cache.StatusString(status)
	if err != nil {
		return err
	}
	if got := s.tc.Explorer.Peek(key).Status; got != want {
		return fmt.Errorf("expected %s to be %s, got %s", key, want, got)
	}
	return nil
}

func (s *StepsContext) theEntryHoldsNodes(kind, target string, count int) error {
	key, err := s.listingKey(kind, target)
	if err != nil {
		return err
	}
	entry := s.tc.Explorer.Peek(key)
	nodes, ok := cache.Value[[]model.NodeSummary](entry)
	if !ok {
		return fmt.Errorf("%s is %s", key, entry.Status)
	}
	if len(nodes) != count {
		return fmt.Errorf("expected %d nodes in %s, got %d", count, key, len(nodes))
	}
	return nil
}

func (s *StepsContext) theCacheIsEmpty() error {
	if n := s.tc.Explorer.Cache().Len(); n != 0 {
		return fmt.Errorf("expected an empty cache, got %d entries", n)
	}
	return nil
}
