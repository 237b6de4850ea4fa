package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var pageNames = []string{"home", "login", "nodes", "create", "node", "revision", "error"}

// Options configure a Server.
type Options struct {
	// RenderWait bounds how long a page waits for its fetches before
	// rendering a loading state. Zero renders immediately.
	RenderWait time.Duration

	// AccessLog receives the combined access log, discarded when nil
	AccessLog io.Writer

	// Logger receives process messages, discarded when nil
	Logger *log.Logger
}

// Server is the operator console.
type Server struct {
	Router *mux.Router

	explorer *explorer.Explorer
	opts     Options
	pages    map[string]*template.Template
	markdown goldmark.Markdown
	handler  http.Handler
}

// NewServer creates the console of e.
func NewServer(e *explorer.Explorer, opts Options) (*Server, error) {
	if opts.AccessLog == nil {
		opts.AccessLog = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	s := &Server{
		Router:   router,
		explorer: e,
		opts:     opts,
		pages:    pages,
		markdown: newMarkdown(),
		handler:  handlers.LoggingHandler(opts.AccessLog, router),
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
	)
	router.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	router.Use(s.sameOrigin)
	router.HandleFunc("/login", s.handleLogin()).Methods("POST")
	router.HandleFunc("/nodes/create", s.handleCreate()).Methods("POST")
	router.PathPrefix("/").HandlerFunc(s.handlePage()).Methods("GET", "HEAD")

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func parsePages() (map[string]*template.Template, error) {
	layout, err := template.ParseFS(templateFiles, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFiles, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}
