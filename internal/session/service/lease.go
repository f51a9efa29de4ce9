// Package service implements the session lease lifecycle: creating leases,
// resolving PINs at terminals, ending leases, and sweeping overdue ones.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cafe-control-plane/internal/audit"
	"cafe-control-plane/internal/db"
	"cafe-control-plane/internal/pin"
	"cafe-control-plane/internal/session/domain"
	"cafe-control-plane/internal/telemetry"
	terminaldomain "cafe-control-plane/internal/terminal/domain"
)

// Lease lifecycle errors surfaced to transports.
var (
	ErrTerminalNotFound = errors.New("terminal not found")
	ErrAlreadyLeased    = errors.New("terminal already has an active session")
	ErrInvalidPin       = errors.New("pin must be 4-12 digits")
	ErrInvalidDuration  = errors.New("session duration must be positive")
	ErrPinInUse         = errors.New("pin is already assigned to an active session")
	ErrPinNotFound      = errors.New("no active session matches the pin")
	ErrSessionExpired   = errors.New("session has expired")
	ErrNoActiveSession  = errors.New("terminal has no active session")
)

// WrongTerminalError reports a valid PIN presented at the wrong terminal.
type WrongTerminalError struct {
	ActualTerminalID int64
}

func (e *WrongTerminalError) Error() string {
	return fmt.Sprintf("pin belongs to terminal %d", e.ActualTerminalID)
}

// SessionRepo is the subset of session persistence the lease service needs.
type SessionRepo interface {
	GetActiveByTerminal(ctx context.Context, terminalID int64) (*domain.Session, error)
	ListActiveByPin(ctx context.Context, pinCode string) ([]*domain.Session, error)
	ListActive(ctx context.Context) ([]*domain.Session, error)
	CreateLease(ctx context.Context, s *domain.Session) (int64, error)
	EndLease(ctx context.Context, sessionID, terminalID int64, at time.Time) error
	ActivateTerminal(ctx context.Context, terminalID int64, at time.Time) error
}

// TerminalRepo is the subset of terminal persistence the lease service needs.
type TerminalRepo interface {
	GetByID(ctx context.Context, id int64) (*terminaldomain.Terminal, error)
}

// generated PINs retry on an active-PIN collision; operator-chosen PINs fail.
const maxPinAttempts = 3

// LeaseService coordinates session leases over the repositories. All state
// lives in the database; the service itself is stateless and safe for
// concurrent use.
type LeaseService struct {
	sessions  SessionRepo
	terminals TerminalRepo
	pins      *pin.Generator
	pinLength int
	audit     audit.Recorder
	metrics   *telemetry.LeaseMetrics
	log       *zap.Logger
	now       func() time.Time
}

func NewLeaseService(
	sessions SessionRepo,
	terminals TerminalRepo,
	pins *pin.Generator,
	pinLength int,
	rec audit.Recorder,
	metrics *telemetry.LeaseMetrics,
	log *zap.Logger,
) *LeaseService {
	if pinLength < domain.MinPinLength || pinLength > domain.MaxPinLength {
		pinLength = pin.DefaultLength
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &LeaseService{
		sessions:  sessions,
		terminals: terminals,
		pins:      pins,
		pinLength: pinLength,
		audit:     rec,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// CreateLease starts a session on the terminal for the given number of
// minutes. When pinCode is empty a PIN is generated. The terminal must exist
// and must not already hold an active session; the partial unique indexes
// enforce both under concurrency.
func (s *LeaseService) CreateLease(ctx context.Context, terminalID int64, pinCode string, minutes int, createdBy string) (*domain.Session, error) {
	if minutes <= 0 {
		return nil, ErrInvalidDuration
	}
	generated := pinCode == ""
	if !generated && !domain.ValidPin(pinCode) {
		return nil, ErrInvalidPin
	}

	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTerminalNotFound
	}

	active, err := s.sessions.GetActiveByTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrAlreadyLeased
	}

	start := s.now().UTC()
	sess := &domain.Session{
		TerminalID: terminalID,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(minutes) * time.Minute),
		IsActive:   true,
		CreatedBy:  createdBy,
		CreatedAt:  start,
	}

	attempts := maxPinAttempts
	if !generated {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if generated {
			code, gerr := s.pins.Generate(s.pinLength)
			if gerr != nil {
				return nil, gerr
			}
			sess.PinCode = code
		} else {
			sess.PinCode = pinCode
		}

		id, cerr := s.sessions.CreateLease(ctx, sess)
		if cerr == nil {
			sess.ID = id
			s.log.Info("lease created",
				zap.Int64("session_id", id),
				zap.Int64("terminal_id", terminalID),
				zap.Int("minutes", minutes),
			)
			s.audit.Record(ctx, audit.Event{
				TerminalID: terminalID,
				Actor:      createdBy,
				Action:     audit.ActionLeaseCreated,
				Detail:     fmt.Sprintf("%d minutes", minutes),
			})
			s.metrics.LeaseCreated(ctx)
			return sess, nil
		}
		if db.IsUniqueViolation(cerr, "sessions_one_active_per_terminal") {
			return nil, ErrAlreadyLeased
		}
		if db.IsUniqueViolation(cerr, "sessions_active_pin_unique") {
			if generated {
				continue
			}
			return nil, ErrPinInUse
		}
		return nil, cerr
	}
	return nil, ErrPinInUse
}

// ResolvePin validates a PIN presented at a terminal. On success the
// terminal is marked leased and the session is returned. Expiry is detected
// lazily here; the session row stays active for the sweep to settle.
func (s *LeaseService) ResolvePin(ctx context.Context, pinCode string, terminalID int64, now time.Time) (*domain.Session, error) {
	if !domain.ValidPin(pinCode) {
		s.reject(ctx, terminalID, "malformed pin")
		return nil, ErrInvalidPin
	}

	matches, err := s.sessions.ListActiveByPin(ctx, pinCode)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		s.reject(ctx, terminalID, "unknown pin")
		return nil, ErrPinNotFound
	}

	// Prefer the requester's own session; otherwise report the newest match.
	match := matches[0]
	for _, m := range matches {
		if m.TerminalID == terminalID {
			match = m
			break
		}
	}
	if match.TerminalID != terminalID {
		s.reject(ctx, terminalID, fmt.Sprintf("pin bound to terminal %d", match.TerminalID))
		return nil, &WrongTerminalError{ActualTerminalID: match.TerminalID}
	}
	if match.Expired(now) {
		s.reject(ctx, terminalID, "session expired")
		return nil, ErrSessionExpired
	}

	if err := s.sessions.ActivateTerminal(ctx, terminalID, now); err != nil {
		return nil, err
	}
	s.log.Info("pin resolved",
		zap.Int64("session_id", match.ID),
		zap.Int64("terminal_id", terminalID),
	)
	s.metrics.PinResolved(ctx)
	return match, nil
}

// EndLease ends the terminal's active session before its scheduled end.
func (s *LeaseService) EndLease(ctx context.Context, terminalID int64, now time.Time) (*domain.Session, error) {
	active, err := s.sessions.GetActiveByTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, ErrNoActiveSession
	}

	if err := s.sessions.EndLease(ctx, active.ID, terminalID, now); err != nil {
		return nil, err
	}
	end := now
	active.IsActive = false
	active.ActualEndTime = &end

	s.log.Info("lease ended",
		zap.Int64("session_id", active.ID),
		zap.Int64("terminal_id", terminalID),
	)
	s.audit.Record(ctx, audit.Event{
		TerminalID: terminalID,
		Actor:      active.CreatedBy,
		Action:     audit.ActionLeaseEnded,
		Detail:     fmt.Sprintf("session %d", active.ID),
	})
	s.metrics.LeaseEnded(ctx)
	return active, nil
}

// ExpireOverdue deactivates every active session whose end time has passed
// and returns how many were closed. Run periodically by the sweep worker.
func (s *LeaseService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, sess := range active {
		if !sess.Expired(now) {
			continue
		}
		if err := s.sessions.EndLease(ctx, sess.ID, sess.TerminalID, now); err != nil {
			s.log.Warn("expiry sweep failed for session",
				zap.Int64("session_id", sess.ID),
				zap.Error(err),
			)
			continue
		}
		s.audit.Record(ctx, audit.Event{
			TerminalID: sess.TerminalID,
			Actor:      "system",
			Action:     audit.ActionLeaseExpired,
			Detail:     fmt.Sprintf("session %d", sess.ID),
		})
		closed++
	}
	if closed > 0 {
		s.log.Info("expiry sweep closed sessions", zap.Int("count", closed))
		s.metrics.LeaseExpired(ctx, int64(closed))
	}
	return closed, nil
}

func (s *LeaseService) reject(ctx context.Context, terminalID int64, reason string) {
	s.audit.Record(ctx, audit.Event{
		TerminalID: terminalID,
		Actor:      "terminal",
		Action:     audit.ActionPinRejected,
		Detail:     reason,
	})
	s.metrics.PinRejected(ctx)
}
