package session

//go:generate go run github.com/dmarkham/enumer -type Status -trimprefix Status -transform lower -json -output status.gen.go

// Status is the authentication state of the session.
type Status int

const (
	StatusAnonymous Status = iota
	StatusPending
	StatusAuthenticated
	StatusRejected
)
