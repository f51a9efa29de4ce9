package repository

import (
	"context"
	"database/sql"
	"errors"

	"cafe-control-plane/internal/admin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an admin repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const adminColumns = "id, username, password_hash, password_salt, is_active, created_at"

// ListActive returns all active admin credential records.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*domain.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+adminColumns+" FROM admin_users WHERE is_active ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AdminUser
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetActiveByUsername returns the active admin with the given username, or
// nil if not found. It returns an error only for database failures.
func (r *PostgresRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admin_users WHERE username = $1 AND is_active", username)
	return scanAdmin(row)
}

// Create persists the admin record and returns its assigned id.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AdminUser) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO admin_users (username, password_hash, password_salt, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.Username, a.PasswordHash, a.PasswordSalt, a.IsActive, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*domain.AdminUser, error) {
	var a domain.AdminUser
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.PasswordSalt, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
