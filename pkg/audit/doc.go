// Package audit provides the activity log of the explorer.
//
// Security-relevant operator actions are written as RFC5424 syslog lines:
//
//   - login attempts (authenticated, rejected, failed)
//   - logouts
//   - node creations
//
// # Usage
//
//	logger := audit.NewLogger(os.Stderr, true)
//	logger.Log(audit.LoginEvent{User: "admin", Outcome: audit.OutcomeRejected, ErrorMessage: "denied"})
package audit
