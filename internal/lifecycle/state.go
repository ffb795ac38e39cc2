package lifecycle

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when decoding an unrecognized state name.
var ErrUnknownState = errors.New("unknown lifecycle state")

// State is the inferred phase of a market. States are ordered by lifecycle
// progression.
type State uint8

const (
	// Opened: the market is open for trading.
	Opened State = iota

	// Paused: trading is paused on an otherwise open market (is_deactivated).
	Paused

	// Closed: close_ts has passed with no determination.
	Closed

	// Determined: determination_ts is set; the result is known.
	Determined

	// Settled: settled_ts is set.
	Settled
)

var stateNames = [...]string{
	Opened:     "opened",
	Paused:     "paused",
	Closed:     "closed",
	Determined: "determined",
	Settled:    "settled",
}

// States returns every state in lifecycle order.
func States() []State {
	return []State{Opened, Paused, Closed, Determined, Settled}
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Terminal reports whether the state can only be left by a snapshot that
// drops its determination or settlement fields.
func (s State) Terminal() bool {
	return s == Determined || s == Settled
}

// ParseState converts a state name ("opened", "settled", ...) to a State.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
