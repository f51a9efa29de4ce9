package repository

import (
	"context"

	"cafe-control-plane/internal/admin/domain"
)

// Repository defines persistence for admin credential records.
type Repository interface {
	ListActive(ctx context.Context) ([]*domain.AdminUser, error)
	GetActiveByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	Create(ctx context.Context, a *domain.AdminUser) (int64, error)
}
