// Package audit records an append-only trail of lease and admin events.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cafe-control-plane/internal/audit/domain"
	auditrepo "cafe-control-plane/internal/audit/repository"
)

// Event actions.
const (
	ActionLeaseCreated = "lease.created"
	ActionLeaseEnded   = "lease.ended"
	ActionLeaseExpired = "lease.expired"
	ActionPinRejected  = "pin.rejected"
	ActionAdminLogin   = "admin.login"
	ActionAdminVerify  = "admin.verify"
	ActionAdminSeeded  = "admin.seeded"
)

// Event is one audit occurrence as reported by a service.
type Event struct {
	TerminalID int64 // 0 when the event is not tied to a terminal
	Actor      string
	Action     string
	Detail     string
}

// Recorder writes a single audit event. Implementations must be best-effort:
// an audit failure never fails the business operation that produced it.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Logger implements Recorder against the audit repository.
type Logger struct {
	repo auditrepo.Repository
	log  *zap.Logger
}

// NewLogger returns a Recorder that persists to repo. Write failures are
// logged and swallowed.
func NewLogger(repo auditrepo.Repository, log *zap.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Record writes one audit log entry.
func (l *Logger) Record(ctx context.Context, e Event) {
	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Actor:     e.Actor,
		Action:    e.Action,
		Detail:    e.Detail,
		CreatedAt: time.Now().UTC(),
	}
	if e.TerminalID != 0 {
		id := e.TerminalID
		entry.TerminalID = &id
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit write failed",
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}

// Nop is a Recorder that discards all events. Used in tests and in binaries
// that do not persist an audit trail.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) {}
