package weather

import (
	"github.com/pkg/errors"
)

var (
	// ErrUpstreamUnavailable matches any FetchFailure of kind KindUpstreamUnavailable.
	ErrUpstreamUnavailable = errors.New("weather upstream unavailable")
)

// FailureKind classifies a FetchFailure.
type FailureKind string

const (
	KindUpstreamUnavailable FailureKind = "upstream_unavailable"
)

// FetchFailure is the typed failure returned by Service lookups. "No data" is
// not a failure; lookups report it as a nil value with a nil error.
type FetchFailure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *FetchFailure) Error() string {
	if f.Err == nil {
		return f.Op + ": " + string(f.Kind)
	}
	return f.Op + ": " + string(f.Kind) + ": " + f.Err.Error()
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is(err, ErrUpstreamUnavailable) match without unwrapping.
func (f *FetchFailure) Is(target error) bool {
	return target == ErrUpstreamUnavailable && f.Kind == KindUpstreamUnavailable
}

func unavailable(op string, cause error) *FetchFailure {
	return &FetchFailure{Kind: KindUpstreamUnavailable, Op: op, Err: cause}
}
