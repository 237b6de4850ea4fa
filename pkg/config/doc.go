// Package config provides configuration management for the explorer.
//
// Configuration is resolved in three layers, later layers winning:
//
//   - built-in defaults
//   - the explorer.yml file in EXPLORER_CONFIG_PATH (default /etc/gonode/explorer)
//   - environment variables
//
// Every attribute remembers which layer set it, which "explorerctl
// configuration show" prints.
//
// # Key Configuration Options
//
//   - EXPLORER_API_BASE_URL: root URL of the gonode API
//   - EXPLORER_REQUEST_TIMEOUT: HTTP timeout in seconds
//   - EXPLORER_PER_PAGE: default page size of node listings
//   - EXPLORER_LISTEN_ADDRESS: address of the operator console
//   - EXPLORER_AUDIT_ENABLED: activity log on/off
package config
