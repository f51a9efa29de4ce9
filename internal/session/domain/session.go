package domain

import "time"

// PIN codes accepted on a lease.
const (
	MinPinLength = 4
	MaxPinLength = 12
)

// Session is a lease of a terminal to a user, unlocked by a numeric PIN.
// Rows are append-only: ended sessions are deactivated, never deleted, so the
// id order doubles as creation order and is the tie-break for "most recent".
type Session struct {
	ID            int64
	TerminalID    int64
	PinCode       string
	StartTime     time.Time
	EndTime       time.Time // exclusive
	IsActive      bool
	ActualEndTime *time.Time // set when the lease is terminated
	CreatedBy     string
	CreatedAt     time.Time
}

// Expired reports whether the lease window has closed at now, regardless of
// the IsActive flag.
func (s *Session) Expired(now time.Time) bool {
	return !s.EndTime.After(now)
}

// ValidPin reports whether pin is an acceptable lease code: 4 to 12 decimal
// digits.
func ValidPin(pin string) bool {
	if len(pin) < MinPinLength || len(pin) > MaxPinLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
