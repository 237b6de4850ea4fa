package ui

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/cache"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/guard"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/session"
)

type page struct {
	Title   string
	User    string
	Refresh bool
	Data    any
}

type homeView struct {
	Server string
}

type loginView struct {
	Next      string
	Username  string
	Rejection string
	Error     string
}

type nodesView struct {
	Loading     bool
	Error       string
	Nodes       []model.NodeSummary
	PreviousURL string
	NextURL     string
}

type createView struct {
	Type    string
	Name    string
	Slug    string
	Enabled bool
	Data    string
	Error   string
}

type nodeView struct {
	Path             string
	Loading          bool
	Error            string
	Detail           template.HTML
	RevisionsLoading bool
	RevisionsError   string
	Revisions        []model.Revision
}

type revisionView struct {
	NodePath string
	Loading  bool
	Error    string
	Detail   template.HTML
}

// entryState reads the render state of an entry. An absent entry was
// dropped after the guard requested it and renders as loading.
func entryState(e cache.Entry) (loading bool, message string) {
	switch e.Status {
	case cache.StatusPresent:
		return false, ""
	case cache.StatusErrored:
		return false, e.Err.Error()
	default:
		return true, ""
	}
}

func (s *Server) handlePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.explorer.Enter(r.Context(), r.URL.RequestURI())
		if err != nil {
			s.renderError(w, r, statusFor(err), err)
			return
		}
		if d.State == guard.StateRedirectedToLogin {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}

		if s.opts.RenderWait > 0 && len(d.Calls) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), s.opts.RenderWait)
			_ = d.Wait(ctx)
			cancel()
		}

		switch d.Match.Route.Name {
		case explorer.RouteHome:
			s.render(w, r, http.StatusOK, "home", page{Title: "Home", Data: homeView{Server: s.explorer.Server()}})
		case explorer.RouteLogin:
			next := r.URL.Query().Get("next")
			s.render(w, r, http.StatusOK, "login", page{Title: "Login", Data: loginView{Next: next}})
		case explorer.RouteNodes:
			s.renderNodes(w, r, d)
		case explorer.RouteCreate:
			s.render(w, r, http.StatusOK, "create", page{Title: "Create a node", Data: createView{Enabled: true}})
		case explorer.RouteNode:
			s.renderNodePage(w, r, d)
		case explorer.RouteRevision:
			s.renderRevision(w, r, d)
		default:
			s.renderError(w, r, http.StatusNotFound, guard.ErrRouteNotFound)
		}
	}
}

func (s *Server) renderNodes(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	view := nodesView{}
	entry := s.explorer.Peek(d.Keys[0])
	view.Loading, view.Error = entryState(entry)

	if nodes, ok := cache.Value[[]model.NodeSummary](entry); ok {
		view.Nodes = nodes

		opts, _ := s.explorer.PageOptions(d.Match.Query)
		current := opts.Page
		if current == 0 {
			current = 1
		}
		if current > 1 {
			view.PreviousURL = pageURL(opts, current-1)
		}
		if len(nodes) >= opts.PerPage {
			view.NextURL = pageURL(opts, current+1)
		}
	}

	s.render(w, r, http.StatusOK, "nodes", page{Title: "Nodes", Refresh: view.Loading, Data: view})
}

func pageURL(opts api.PageOptions, number int) string {
	opts.Page = number
	return "/nodes?" + opts.String()
}

func (s *Server) renderNodePage(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	view := nodeView{Path: d.Match.Path}
	status := http.StatusOK
	title := "Node"

	entry := s.explorer.Peek(d.Keys[0])
	view.Loading, view.Error = entryState(entry)
	if errors.Is(entry.Err, api.ErrNotFound) {
		status = http.StatusNotFound
	}
	if node, ok := cache.Value[*model.NodeDetail](entry); ok {
		title = node.Name
		detail, err := s.renderNode(node, node.Name)
		if err != nil {
			s.renderError(w, r, http.StatusInternalServerError, err)
			return
		}
		view.Detail = detail
	}

	revisions := s.explorer.Peek(d.Keys[1])
	view.RevisionsLoading, view.RevisionsError = entryState(revisions)
	if revs, ok := cache.Value[[]model.Revision](revisions); ok {
		view.Revisions = revs
	}

	s.render(w, r, status, "node", page{Title: title, Refresh: view.Loading || view.RevisionsLoading, Data: view})
}

func (s *Server) renderRevision(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	nodePath, err := s.explorer.Guard().URL(explorer.RouteNode, "node_uuid", d.Match.Vars["node_uuid"])
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	view := revisionView{NodePath: nodePath}
	status := http.StatusOK
	title := "Revision " + d.Match.Vars["rev"]

	entry := s.explorer.Peek(d.Keys[0])
	view.Loading, view.Error = entryState(entry)
	if errors.Is(entry.Err, api.ErrNotFound) {
		status = http.StatusNotFound
	}
	if rev, ok := cache.Value[*model.Revision](entry); ok {
		title = rev.Name + " (" + title + ")"
		detail, err := s.renderNode(&rev.NodeDetail, title)
		if err != nil {
			s.renderError(w, r, http.StatusInternalServerError, err)
			return
		}
		view.Detail = detail
	}

	s.render(w, r, status, "revision", page{Title: title, Refresh: view.Loading, Data: view})
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, err)
			return
		}

		creds := session.Credentials{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
		view := loginView{Next: r.PostForm.Get("next"), Username: creds.Username}

		snap, err := s.explorer.Login(r.Context(), creds)
		if err != nil {
			s.opts.Logger.Printf("ui: login of %q failed: %v", creds.Username, err)
			view.Error = "Unable to reach the gonode API: " + err.Error()
			s.render(w, r, http.StatusBadGateway, "login", page{Title: "Login", Data: view})
			return
		}

		switch snap.Status {
		case session.StatusAuthenticated:
			http.Redirect(w, r, s.explorer.AfterLogin(view.Next), http.StatusSeeOther)
		case session.StatusRejected:
			view.Rejection = "invalid credentials"
			if snap.Rejection != nil && snap.Rejection.Message != "" {
				view.Rejection = snap.Rejection.Message
			}
			s.render(w, r, http.StatusForbidden, "login", page{Title: "Login", Data: view})
		default:
			view.Error = "Another login is in progress"
			s.render(w, r, http.StatusConflict, "login", page{Title: "Login", Data: view})
		}
	}
}

func (s *Server) handleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.explorer.Session().IsAuthenticated() {
			http.Redirect(w, r, "/login?"+url.Values{"next": {"/nodes/create"}}.Encode(), http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, err)
			return
		}

		view := createView{
			Type:    strings.TrimSpace(r.PostForm.Get("type")),
			Name:    strings.TrimSpace(r.PostForm.Get("name")),
			Slug:    strings.TrimSpace(r.PostForm.Get("slug")),
			Enabled: r.PostForm.Get("enabled") != "",
			Data:    r.PostForm.Get("data"),
		}

		payload, err := view.payload()
		if err != nil {
			view.Error = err.Error()
			s.render(w, r, http.StatusUnprocessableEntity, "create", page{Title: "Create a node", Data: view})
			return
		}

		_, path, err := s.explorer.CreateNode(r.Context(), payload)
		if errors.Is(err, explorer.ErrNotAuthenticated) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err != nil {
			view.Error = err.Error()
			s.render(w, r, http.StatusBadGateway, "create", page{Title: "Create a node", Data: view})
			return
		}

		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}

func (v createView) payload() (model.NodePayload, error) {
	payload := model.NodePayload{
		Type:    v.Type,
		Name:    v.Name,
		Slug:    v.Slug,
		Enabled: v.Enabled,
	}
	if payload.Type == "" || payload.Name == "" {
		return payload, errors.New("type and name are required")
	}

	if strings.TrimSpace(v.Data) != "" {
		if err := yaml.Unmarshal([]byte(v.Data), &payload.Data); err != nil {
			return payload, errors.New("data is not a YAML or JSON document: " + err.Error())
		}
	}
	return payload, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, guard.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, explorer.ErrInvalidPage), errors.Is(err, explorer.ErrInvalidRevision),
		errors.Is(err, api.ErrInvalidUUID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.render(w, r, status, "error", page{Title: strconv.Itoa(status) + " " + http.StatusText(status), Data: err.Error()})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if snap := s.explorer.Session().Snapshot(); s.explorer.Session().IsAuthenticated() {
		p.User = snap.Username
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout.html", p); err != nil {
		s.opts.Logger.Printf("ui: rendering %s for %s failed: %v", name, r.URL.Path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
