// Package apitest provides an in-memory gonode API for tests and local demos.
//
// The server implements the subset of the gonode REST API the explorer talks
// to: form login issuing HS256 tokens, bearer-protected node listing, node
// documents, creation and revision history. It counts hits per route and can
// be told to fail or to hold requests, which tests use to observe request
// de-duplication and error states.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

// Route names accepted by Hits, Fail and Hold.
const (
	RouteHello     = "hello"
	RouteLogin     = "login"
	RouteNodes     = "nodes"
	RouteNode      = "node"
	RouteCreate    = "create"
	RouteRevisions = "revisions"
	RouteRevision  = "revision"
)

// TokenTTL matches the lifetime of tokens signed by gonode.
const TokenTTL = 72 * time.Hour

// Options configure a Server.
type Options struct {
	// SigningKey signs the login tokens
	SigningKey []byte

	// AccessLog receives the combined access log, discarded when nil
	AccessLog io.Writer

	// Now is the clock used for token issuance
	Now func() time.Time
}

// Server is a fake gonode API.
type Server struct {
	opts    Options
	handler http.Handler

	mu        sync.Mutex
	users     map[string][]byte
	nodes     map[uuid.UUID][]model.Revision
	order     []uuid.UUID
	hits      map[string]int
	failures  map[string]int
	held      map[string]chan struct{}
	arrivals  map[string]chan struct{}
	lastToken map[string]string
}

// New creates a server with no users and no nodes.
func New(opts Options) *Server {
	if len(opts.SigningKey) == 0 {
		opts.SigningKey = []byte("gonode-test-signing-key")
	}
	if opts.AccessLog == nil {
		opts.AccessLog = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		opts:      opts,
		users:     make(map[string][]byte),
		nodes:     make(map[uuid.UUID][]model.Revision),
		hits:      make(map[string]int),
		failures:  make(map[string]int),
		held:      make(map[string]chan struct{}),
		arrivals:  make(map[string]chan struct{}),
		lastToken: make(map[string]string),
	}

	router := mux.NewRouter().UseEncodedPath()
	router.HandleFunc("/hello", s.track(RouteHello, s.handleHello)).Methods("GET")
	router.HandleFunc("/login", s.track(RouteLogin, s.handleLogin)).Methods("POST")
	router.HandleFunc("/nodes", s.track(RouteNodes, s.requireToken(RouteNodes, s.handleListNodes))).Methods("GET")
	router.HandleFunc("/nodes", s.track(RouteCreate, s.requireToken(RouteCreate, s.handleCreateNode))).Methods("POST")
	router.HandleFunc("/nodes/{uuid}", s.track(RouteNode, s.requireToken(RouteNode, s.handleGetNode))).Methods("GET")
	router.HandleFunc("/nodes/{uuid}/revisions", s.track(RouteRevisions, s.requireToken(RouteRevisions, s.handleListRevisions))).Methods("GET")
	router.HandleFunc("/nodes/{uuid}/revisions/{rev:[0-9]+}", s.track(RouteRevision, s.requireToken(RouteRevision, s.handleGetRevision))).Methods("GET")

	s.handler = handlers.LoggingHandler(opts.AccessLog, router)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// AddUser registers a user; the password is stored as a bcrypt hash.
func (s *Server) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
}

// AddNode stores a node as revision 1 and returns its document.
func (s *Server) AddNode(payload model.NodePayload) model.NodeDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(payload)
}

// ReviseNode appends a revision renaming the node.
func (s *Server) ReviseNode(id uuid.UUID, name string) (model.NodeDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revs, ok := s.nodes[id]
	if !ok {
		return model.NodeDetail{}, false
	}

	next := revs[len(revs)-1]
	next.Revision++
	next.Name = name
	next.UpdatedAt = s.opts.Now().UTC()
	s.nodes[id] = append(revs, next)
	return next.NodeDetail, true
}

// Hits returns how many requests reached the route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Fail makes the route answer with status until cleared with a zero status.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Hold blocks requests to the route until the returned release func is
// called. The arrived channel receives one value per request that is held.
func (s *Server) Hold(route string) (arrived <-chan struct{}, release func()) {
	gate := make(chan struct{})
	arrivals := make(chan struct{}, 64)

	s.mu.Lock()
	s.held[route] = gate
	s.arrivals[route] = arrivals
	s.mu.Unlock()

	var once sync.Once
	return arrivals, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.held, route)
			delete(s.arrivals, route)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// LastToken returns the bearer token last seen on the route.
func (s *Server) LastToken(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastToken[route]
}

// IssueToken signs a token the way the login endpoint does.
func (s *Server) IssueToken(username string, ttl time.Duration) string {
	now := s.opts.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.opts.SigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		status := s.failures[route]
		gate := s.held[route]
		arrivals := s.arrivals[route]
		s.mu.Unlock()

		if gate != nil {
			select {
			case arrivals <- struct{}{}:
			default:
			}
			<-gate
		}

		if status != 0 {
			sendWithHTTPCode(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

func (s *Server) requireToken(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			sendWithHTTPCode(w, http.StatusUnauthorized, "Authorization missing")
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return s.opts.SigningKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now))
		if err != nil {
			sendWithHTTPCode(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			return
		}

		s.mu.Lock()
		s.lastToken[route] = raw
		s.mu.Unlock()

		next(w, r)
	}
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("Hello!"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendWithHTTPCode(w, http.StatusBadRequest, "Unable to parse the form")
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	hash, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		sendWithHTTPCode(w, http.StatusForbidden, "Unable to authenticate request: unknown user")
		return
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		sendWithHTTPCode(w, http.StatusForbidden, "Unable to authenticate request: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(s.IssueToken(username, TokenTTL)))
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	all := make([]model.NodeSummary, 0, len(s.order))
	for _, id := range s.order {
		revs := s.nodes[id]
		all = append(all, revs[len(revs)-1].NodeSummary)
	}
	s.mu.Unlock()

	sendPager(w, all, page, perPage)
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var payload model.NodePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendWithHTTPCode(w, http.StatusBadRequest, "Unable to decode the node")
		return
	}
	if payload.Type == "" || payload.Name == "" {
		sendWithHTTPCode(w, http.StatusPreconditionFailed, "Unable to validate data")
		return
	}

	s.mu.Lock()
	node := s.insertLocked(payload)
	s.mu.Unlock()

	respondWithJSON(w, http.StatusCreated, node)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	revs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, revs[len(revs)-1].NodeDetail)
}

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	revs, ok := s.lookup(w, r)
	if !ok {
		return
	}

	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}

	newest := make([]model.Revision, len(revs))
	copy(newest, revs)
	sort.SliceStable(newest, func(i, j int) bool { return newest[i].Revision > newest[j].Revision })

	sendPager(w, newest, page, perPage)
}

func (s *Server) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	revs, ok := s.lookup(w, r)
	if !ok {
		return
	}

	number, _ := strconv.Atoi(mux.Vars(r)["rev"])
	for _, rev := range revs {
		if rev.Revision == number {
			respondWithJSON(w, http.StatusOK, rev)
			return
		}
	}
	sendWithHTTPCode(w, http.StatusNotFound, "Unable to find the node")
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) ([]model.Revision, bool) {
	id, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		sendWithHTTPCode(w, http.StatusInternalServerError, "Unable to parse the reference")
		return nil, false
	}

	s.mu.Lock()
	revs, ok := s.nodes[id]
	s.mu.Unlock()

	if !ok {
		sendWithHTTPCode(w, http.StatusNotFound, "Unable to find the node")
		return nil, false
	}
	return revs, true
}

func (s *Server) insertLocked(payload model.NodePayload) model.NodeDetail {
	now := s.opts.Now().UTC()
	var data, meta json.RawMessage
	if payload.Data != nil {
		data, _ = json.Marshal(payload.Data)
	}
	if payload.Meta != nil {
		meta, _ = json.Marshal(payload.Meta)
	}

	node := model.NodeDetail{
		NodeSummary: model.NodeSummary{
			Uuid:      uuid.New(),
			Type:      payload.Type,
			Name:      payload.Name,
			Slug:      payload.Slug,
			Revision:  1,
			Status:    payload.Status,
			Weight:    payload.Weight,
			Enabled:   payload.Enabled,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Data: data,
		Meta: meta,
	}

	s.nodes[node.Uuid] = []model.Revision{{NodeDetail: node}}
	s.order = append(s.order, node.Uuid)
	return node
}

func pagination(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	page, perPage = 1, 10
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendWithHTTPCode(w, http.StatusPreconditionFailed, "Invalid pagination range")
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 128 {
			sendWithHTTPCode(w, http.StatusPreconditionFailed, "Invalid pagination range")
			return 0, 0, false
		}
		perPage = n
	}
	return page, perPage, true
}

func sendPager[T any](w http.ResponseWriter, all []T, page, perPage int) {
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}

	elements := make([]json.RawMessage, 0, end-start)
	for _, v := range all[start:end] {
		raw, _ := json.Marshal(v)
		elements = append(elements, raw)
	}

	pager := model.Pager{Elements: elements, Page: page, PerPage: perPage}
	if end < len(all) {
		pager.Next = page + 1
	}
	if page > 1 {
		pager.Previous = page - 1
	}
	respondWithJSON(w, http.StatusOK, pager)
}

func sendWithHTTPCode(w http.ResponseWriter, code int, message string) {
	status := "KO"
	if code < 300 {
		status = "OK"
	}
	respondWithJSON(w, code, map[string]string{"status": status, "message": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		response = []byte(fmt.Sprintf(`{"status":"KO","message":%q}`, err.Error()))
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
