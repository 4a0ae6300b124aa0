package domain

import "time"

// SessionTTL is the window after which an idle session must be replaced.
const SessionTTL = time.Hour

type Session struct {
	ID           string
	OwnerID      string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Expired reports whether the session's idle window has elapsed.
// A zero LastActiveAt always counts as expired.
func (s Session) Expired(now time.Time) bool {
	if s.LastActiveAt.IsZero() {
		return true
	}
	return now.Sub(s.LastActiveAt) >= SessionTTL
}

func (s *Session) Touch(now time.Time) {
	s.LastActiveAt = now
}
