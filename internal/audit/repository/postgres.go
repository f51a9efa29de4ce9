package repository

import (
	"context"
	"database/sql"

	"cafe-control-plane/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one audit log entry.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	terminalID := sql.NullInt64{}
	if e.TerminalID != nil {
		terminalID = sql.NullInt64{Int64: *e.TerminalID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, terminal_id, actor, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, terminalID, e.Actor, e.Action, e.Detail, e.CreatedAt)
	return err
}
