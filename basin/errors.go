package basin

import (
	"errors"
	"fmt"
)

var (
	ErrOutsideDEM          = errors.New("pour point lies outside the dem")
	ErrEmptyNetwork        = errors.New("no stream network above one cell of drainage area")
	ErrMisaligned          = errors.New("grid cannot be aligned to the dem")
	ErrMalformedPourPoints = errors.New("malformed pour points")
)

// State is the progress of a single basin through the pipeline.
type State int

const (
	PourPointLocated State = iota
	MaskBuilt
	NetworkDerived
	Conditioned
	SegmentedAndScored
	StatsAggregated
	Persisted
)

var stateNames = [...]string{"pour-point", "mask-built", "network-derived", "conditioned", "segmented-and-scored", "stats-aggregated", "persisted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Error is a failure of one basin. State is the last state the basin reached.
type Error struct {
	ID    int
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("basin %d (%s): %v", e.ID, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
