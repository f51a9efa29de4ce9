package repository

import (
	"context"
	"time"

	"cafe-control-plane/internal/terminal/domain"
)

// Repository defines persistence for terminals.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Terminal, error)
	GetByName(ctx context.Context, name string) (*domain.Terminal, error)
	List(ctx context.Context) ([]*domain.Terminal, error)
	Create(ctx context.Context, t *domain.Terminal) (int64, error)
	UpdateHeartbeat(ctx context.Context, id int64, at time.Time) (bool, error)
}
