package exchange

import (
	"errors"
	"fmt"
)

// ErrUnknownExchange is returned when decoding an unrecognized exchange code.
var ErrUnknownExchange = errors.New("unknown exchange")

// ID is a unique identifier for an exchange server.
// The zero value is not a valid exchange.
type ID uint8

const (
	// Kalshi is the Kalshi exchange ("KAL").
	Kalshi ID = iota + 1
)

var codes = map[ID]string{
	Kalshi: "KAL",
}

var names = map[ID]string{
	Kalshi: "kalshi",
}

// All returns every supported exchange.
func All() []ID {
	return []ID{Kalshi}
}

// String returns the three-letter code (e.g. "KAL").
func (id ID) String() string {
	if code, ok := codes[id]; ok {
		return code
	}
	return fmt.Sprintf("ID(%d)", uint8(id))
}

// Name returns the lowercase display name (e.g. "kalshi").
func (id ID) Name() string {
	return names[id]
}

// Valid reports whether id is a supported exchange.
func (id ID) Valid() bool {
	_, ok := codes[id]
	return ok
}

// Parse converts a three-letter code back to an ID.
func Parse(code string) (ID, error) {
	for id, c := range codes {
		if c == code {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExchange, code)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownExchange, uint8(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
