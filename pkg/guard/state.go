package guard

//go:generate go run github.com/dmarkham/enumer -type State -trimprefix State -transform snake -json -output state.gen.go

// State is the outcome of evaluating a route entry.
type State int

const (
	StateEvaluating State = iota
	StateAllowed
	StateRedirectedToLogin
)
