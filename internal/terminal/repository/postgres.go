package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cafe-control-plane/internal/terminal/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a terminal repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const terminalColumns = "id, name, status, last_heartbeat, created_at"

// GetByID returns the terminal for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Terminal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+terminalColumns+" FROM terminals WHERE id = $1", id)
	return scanTerminal(row)
}

// GetByName returns the terminal with the exact endpoint name, or nil if not
// found. It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Terminal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+terminalColumns+" FROM terminals WHERE name = $1", name)
	return scanTerminal(row)
}

// List returns all terminals ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Terminal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+terminalColumns+" FROM terminals ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Terminal
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create persists the terminal and returns its assigned id. A duplicate name
// surfaces as a unique violation on terminals_name_key.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Terminal) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO terminals (name, status, last_heartbeat, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		t.Name, string(t.Status), timeToNullTime(t.LastHeartbeat), t.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateHeartbeat sets the terminal's last liveness timestamp. Returns false
// when no row matched the id.
func (r *PostgresRepository) UpdateHeartbeat(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE terminals SET last_heartbeat = $2 WHERE id = $1", id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerminal(row rowScanner) (*domain.Terminal, error) {
	var (
		t         domain.Terminal
		status    string
		heartbeat sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Name, &status, &heartbeat, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Status = domain.Status(status)
	t.LastHeartbeat = nullTimeToPtr(heartbeat)
	return &t, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
