package repository

import (
	"context"
	"time"

	"cafe-control-plane/internal/session/domain"
)

// Repository defines persistence for sessions, including the lease
// transactions that atomically touch a session together with its terminal.
type Repository interface {
	GetActiveByTerminal(ctx context.Context, terminalID int64) (*domain.Session, error)
	ListActiveByPin(ctx context.Context, pin string) ([]*domain.Session, error)
	ListActive(ctx context.Context) ([]*domain.Session, error)
	ListLatestByTerminal(ctx context.Context) (map[int64]*domain.Session, error)
	CreateLease(ctx context.Context, s *domain.Session) (int64, error)
	EndLease(ctx context.Context, sessionID, terminalID int64, at time.Time) error
	ActivateTerminal(ctx context.Context, terminalID int64, at time.Time) error
}
