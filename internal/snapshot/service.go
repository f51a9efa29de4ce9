// Package snapshot assembles the console's terminal overview: every
// registered terminal joined with its latest session and projected status.
package snapshot

import (
	"context"
	"time"

	sessiondomain "cafe-control-plane/internal/session/domain"
	"cafe-control-plane/internal/status"
	terminaldomain "cafe-control-plane/internal/terminal/domain"
)

// TerminalView is one row of the console overview. PIN and session fields
// are present only while a lease is active.
type TerminalView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	RemainingText    string  `json:"remaining_text,omitempty"`
	RemainingPercent float64 `json:"remaining_percent"`
	Indicator        string  `json:"indicator"`
	Pin              string  `json:"pin,omitempty"`
	SessionID        *int64  `json:"session_id,omitempty"`
	SessionEndTime   *string `json:"session_end_time,omitempty"`
}

// TerminalRepo lists registered terminals.
type TerminalRepo interface {
	List(ctx context.Context) ([]*terminaldomain.Terminal, error)
}

// SessionRepo provides each terminal's most recent session for the overview
// join.
type SessionRepo interface {
	ListLatestByTerminal(ctx context.Context) (map[int64]*sessiondomain.Session, error)
}

// Service builds terminal overviews.
type Service struct {
	terminals        TerminalRepo
	sessions         SessionRepo
	heartbeatTimeout time.Duration
}

func NewService(terminals TerminalRepo, sessions SessionRepo, heartbeatTimeout time.Duration) *Service {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = status.DefaultHeartbeatTimeout
	}
	return &Service{terminals: terminals, sessions: sessions, heartbeatTimeout: heartbeatTimeout}
}

// List returns the overview for every registered terminal at the given
// instant, ordered as the terminal repository orders them.
func (s *Service) List(ctx context.Context, now time.Time) ([]TerminalView, error) {
	terminals, err := s.terminals.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.sessions.ListLatestByTerminal(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]TerminalView, 0, len(terminals))
	for _, t := range terminals {
		sess := latest[t.ID]
		p := status.Project(now, t.LastHeartbeat, sess, s.heartbeatTimeout)

		v := TerminalView{
			ID:               t.ID,
			Name:             t.Name,
			Status:           string(p.Status),
			RemainingText:    p.RemainingText,
			RemainingPercent: p.RemainingPercent,
			Indicator:        string(p.Indicator),
		}
		if sess != nil && sess.IsActive {
			id := sess.ID
			end := sess.EndTime.UTC().Format(time.RFC3339)
			v.Pin = sess.PinCode
			v.SessionID = &id
			v.SessionEndTime = &end
		}
		views = append(views, v)
	}
	return views, nil
}
