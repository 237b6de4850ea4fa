// Package ui serves the operator console.
//
// Every GET request is a navigation: it runs through the explorer's guard,
// which redirects anonymous sessions to the login page or starts the fetches
// the page needs. Pages then render from cache snapshots only. An entry
// still in flight renders a loading block that refreshes itself; a failed
// entry renders an error block.
//
// Node documents are laid out as Markdown and converted with goldmark.
package ui
