package lifecycle

import (
	"errors"
	"time"
)

// Validation errors. Classification never returns these; see Snapshot.Validate.
var (
	ErrCloseBeforeOpen             = errors.New("close_ts is before open_ts")
	ErrSettledWithoutDetermination = errors.New("settled_ts set without determination_ts")
	ErrResultWithoutDetermination  = errors.New("result set without determination_ts")
)

// Snapshot is the exchange's current view of one market's timing and status.
type Snapshot struct {
	// OpenTS is when the market opened.
	OpenTS time.Time `yaml:"open_ts" json:"open_ts"`

	// CloseTS is when the market is scheduled to close. Moves earlier on
	// early determination.
	CloseTS time.Time `yaml:"close_ts" json:"close_ts"`

	// DeterminationTS is absent until the market is determined.
	DeterminationTS *time.Time `yaml:"determination_ts,omitempty" json:"determination_ts,omitempty"`

	// SettledTS is absent until the market is settled.
	SettledTS *time.Time `yaml:"settled_ts,omitempty" json:"settled_ts,omitempty"`

	// Result is absent until the market is determined.
	Result *string `yaml:"result,omitempty" json:"result,omitempty"`

	// IsDeactivated pauses trading. Only meaningful for an open market.
	IsDeactivated bool `yaml:"is_deactivated" json:"is_deactivated"`
}

// Update is one classification of a Snapshot.
type Update struct {
	State    State     `json:"state"`
	StatusTS time.Time `json:"status_ts"` // timestamp associated with State
	UpdateTS time.Time `json:"update_ts"` // when the classification ran
}

// String formats as "state | status_ts | update_ts".
func (u Update) String() string {
	return u.State.String() + " | " + u.StatusTS.Format(time.RFC3339) + " | " + u.UpdateTS.Format(time.RFC3339)
}

// Classify infers the market's state from s as of now.
func Classify(s Snapshot, now time.Time) Update {
	var (
		state    State
		statusTS time.Time
	)

	switch {
	case s.SettledTS != nil:
		state, statusTS = Settled, *s.SettledTS
	case s.DeterminationTS != nil:
		state, statusTS = Determined, *s.DeterminationTS
	case !now.Before(s.CloseTS):
		// Closed outranks Paused: an expired market has left the tradable phase.
		state, statusTS = Closed, s.CloseTS
	case s.IsDeactivated:
		state, statusTS = Paused, now
	default:
		state, statusTS = Opened, s.OpenTS
	}

	return Update{
		State:    state,
		StatusTS: statusTS,
		UpdateTS: now,
	}
}

// Check classifies s against the current UTC time.
func (s Snapshot) Check() Update {
	return Classify(s, time.Now().UTC())
}

// Validate reports internal inconsistencies in s. A snapshot that fails
// validation still classifies.
func (s Snapshot) Validate() error {
	var errs []error
	if s.CloseTS.Before(s.OpenTS) {
		errs = append(errs, ErrCloseBeforeOpen)
	}
	if s.SettledTS != nil && s.DeterminationTS == nil {
		errs = append(errs, ErrSettledWithoutDetermination)
	}
	if s.Result != nil && s.DeterminationTS == nil {
		errs = append(errs, ErrResultWithoutDetermination)
	}
	return errors.Join(errs...)
}
