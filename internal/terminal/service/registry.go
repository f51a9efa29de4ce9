package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cafe-control-plane/internal/db"
	"cafe-control-plane/internal/terminal/domain"
)

// ErrInvalidName is returned when a terminal name is empty after trimming.
var ErrInvalidName = errors.New("terminal name must not be empty")

// ErrRegistrationFailed wraps every storage failure during registration, so
// callers can treat any of them as the one fatal condition.
var ErrRegistrationFailed = errors.New("terminal registration failed")

// TerminalRepo is the subset of terminal persistence the registry needs.
type TerminalRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Terminal, error)
	Create(ctx context.Context, t *domain.Terminal) (int64, error)
	UpdateHeartbeat(ctx context.Context, id int64, at time.Time) (bool, error)
}

// Registry resolves terminal endpoints to stable ids and tracks liveness.
type Registry struct {
	repo TerminalRepo
	log  *zap.Logger
}

func NewRegistry(repo TerminalRepo, log *zap.Logger) *Registry {
	return &Registry{repo: repo, log: log}
}

// GetOrRegister returns the id of the terminal with the given name, creating
// the record on first contact. Registration is idempotent: concurrent calls
// with the same name converge on one row via the unique name constraint.
func (r *Registry) GetOrRegister(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}

	existing, err := r.repo.GetByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.repo.Create(ctx, &domain.Terminal{
		Name:      name,
		Status:    domain.StatusIdle,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if !db.IsUniqueViolation(err, "terminals_name_key") {
			return 0, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
		}
		// Lost the insert race; read back the winner.
		winner, gerr := r.repo.GetByName(ctx, name)
		if gerr != nil {
			return 0, fmt.Errorf("%w: %v", ErrRegistrationFailed, gerr)
		}
		if winner == nil {
			return 0, ErrRegistrationFailed
		}
		return winner.ID, nil
	}

	r.log.Info("terminal registered", zap.Int64("terminal_id", id), zap.String("name", name))
	return id, nil
}

// Heartbeat records liveness for a terminal. Unknown ids are ignored so a
// stale client cannot generate errors by polling after a reset.
func (r *Registry) Heartbeat(ctx context.Context, id int64, at time.Time) error {
	ok, err := r.repo.UpdateHeartbeat(ctx, id, at)
	if err != nil {
		return err
	}
	if !ok {
		r.log.Debug("heartbeat for unknown terminal", zap.Int64("terminal_id", id))
	}
	return nil
}
