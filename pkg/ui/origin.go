package ui

import (
	"errors"
	"net/http"
	"net/url"
)

var errCrossOrigin = errors.New("cross-origin request refused")

// sameOrigin rejects state-changing requests issued by another site. It
// covers every POST and the logout route, which logs out on GET.
//
// Browsers set Sec-Fetch-Site on every request and Origin on every POST, so
// a form auto-submitted from a foreign page is caught by one or the other.
// Requests carrying neither header (command line clients) are let through.
func (s *Server) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !changesState(r) || fromConsole(r) {
			next.ServeHTTP(w, r)
			return
		}

		s.opts.Logger.Printf("ui: refusing cross-origin %s %s (origin %q, referer %q)",
			r.Method, r.URL.Path, r.Header.Get("Origin"), r.Header.Get("Referer"))
		s.renderError(w, r, http.StatusForbidden, errCrossOrigin)
	})
}

func changesState(r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	return r.URL.Path == "/logout"
}

func fromConsole(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return false
	}

	if origin := r.Header.Get("Origin"); origin != "" {
		return sameHost(origin, r.Host)
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		return sameHost(referer, r.Host)
	}
	return true
}

func sameHost(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host != "" && u.Host == host
}
