package repository

import (
	"context"

	"cafe-control-plane/internal/audit/domain"
)

// Repository defines persistence for audit log entries.
type Repository interface {
	Create(ctx context.Context, e *domain.AuditLog) error
}
