package lazy

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a lazy cell.
type State uint8

const (
	// NotComputed means compute has not run yet.
	NotComputed State = iota
	// Computing means compute is running right now.
	Computing
	// Computed means the value is cached.
	Computed
	// Errored is absorbing: compute was reentered.
	Errored
)

func (s State) String() string {
	switch s {
	case NotComputed:
		return "not-computed"
	case Computing:
		return "computing"
	case Computed:
		return "computed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// terminal reports whether no further computation will happen.
func (s State) terminal() bool {
	return s == Computed || s == Errored
}

// ErrReentrant matches every *ReentrantComputationError via errors.Is.
var ErrReentrant = errors.New("lazy: reentrant computation")

// ReentrantComputationError is returned when a compute function asks for
// its own value.
type ReentrantComputationError struct {
	// Name is the optional debug label of the cell.
	Name string
	// Key is set by Memo to the key being recomputed.
	Key any
}

func (e *ReentrantComputationError) Error() string {
	label := e.Name
	if label == "" {
		label = "lazy value"
	}
	if e.Key != nil {
		return fmt.Sprintf("recursion detected in %s on input %v", label, e.Key)
	}
	return "recursion detected in " + label
}

// Unwrap lets errors.Is(err, ErrReentrant) succeed.
func (e *ReentrantComputationError) Unwrap() error { return ErrReentrant }
