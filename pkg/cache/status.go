package cache

//go:generate go run github.com/dmarkham/enumer -type Status -trimprefix Status -transform lower -json -output status.gen.go

// Status is the fetch state of a cache entry.
type Status int

const (
	StatusAbsent Status = iota
	StatusLoading
	StatusPresent
	StatusErrored
)
