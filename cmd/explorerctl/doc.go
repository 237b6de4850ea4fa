// Command explorerctl is the operator console of a gonode server.
//
// It serves the browser console and offers the same read and create
// operations from the command line. Both go through the same session, cache
// and guard, so a listing is fetched once per page size and creating a node
// refreshes the listings.
//
// # Quick Start
//
//	# Wait for the gonode API to answer
//	explorerctl wait
//
//	# Serve the console on 127.0.0.1:2406
//	explorerctl serve
//
//	# List nodes from the command line
//	export EXPLORER_USERNAME=admin EXPLORER_PASSWORD=admin
//	explorerctl nodes list --per-page 20
//
//	# Create a node from a YAML document, then on every change of the file
//	explorerctl nodes create node.yml
//	explorerctl nodes watch node.yml
//
// # Environment Variables
//
//   - EXPLORER_CONFIG_PATH: directory holding explorer.yml (default: /etc/gonode/explorer)
//   - EXPLORER_API_BASE_URL: root URL of the gonode API
//   - EXPLORER_REQUEST_TIMEOUT: HTTP timeout in seconds
//   - EXPLORER_PER_PAGE: default page size of listings
//   - EXPLORER_LISTEN_ADDRESS: address the console binds to
//   - EXPLORER_AUDIT_ENABLED: toggles the activity log on stderr
//   - EXPLORER_USERNAME, EXPLORER_PASSWORD: credentials of the nodes commands
package main
