// Package explorer wires the session, the resource cache, the transport and
// the navigation guard into the one instance a console process owns.
//
// The instance is created once with New and handed to every consumer, the
// HTTP console in pkg/ui and the explorerctl commands alike. Logging out
// through the session empties the cache, so no data crosses sessions.
package explorer
