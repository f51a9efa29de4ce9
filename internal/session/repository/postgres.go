package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe-control-plane/internal/session/domain"
	terminaldomain "cafe-control-plane/internal/terminal/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = "id, terminal_id, pin_code, start_time, end_time, is_active, actual_end_time, created_by, created_at"

// GetActiveByTerminal returns the most recent active session for the
// terminal, or nil if there is none. Highest id wins when duplicates exist
// transiently.
func (r *PostgresRepository) GetActiveByTerminal(ctx context.Context, terminalID int64) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+` FROM sessions
		 WHERE terminal_id = $1 AND is_active ORDER BY id DESC LIMIT 1`, terminalID)
	return scanSession(row)
}

// ListActiveByPin returns active sessions holding pin, most recent first.
func (r *PostgresRepository) ListActiveByPin(ctx context.Context, pin string) ([]*domain.Session, error) {
	return r.list(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE pin_code = $1 AND is_active ORDER BY id DESC", pin)
}

// ListActive returns all active sessions ordered by id descending.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*domain.Session, error) {
	return r.list(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE is_active ORDER BY id DESC")
}

// ListLatestByTerminal returns each terminal's most recent session, active or
// not, keyed by terminal id. Used by the console snapshot for last-PIN display.
func (r *PostgresRepository) ListLatestByTerminal(ctx context.Context) (map[int64]*domain.Session, error) {
	sessions, err := r.list(ctx,
		"SELECT DISTINCT ON (terminal_id) "+sessionColumns+` FROM sessions
		 ORDER BY terminal_id, id DESC`)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*domain.Session, len(sessions))
	for _, s := range sessions {
		out[s.TerminalID] = s
	}
	return out, nil
}

// CreateLease inserts the session and marks its terminal leased with a fresh
// heartbeat, in one transaction. The terminal row is locked first so
// concurrent lease mutations on the same terminal serialize; the partial
// unique indexes on sessions reject a second active session or an active PIN
// clash that slipped past the service checks.
func (r *PostgresRepository) CreateLease(ctx context.Context, s *domain.Session) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM terminals WHERE id = $1 FOR UPDATE", s.TerminalID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("terminal %d does not exist", s.TerminalID)
		}
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sessions (terminal_id, pin_code, start_time, end_time, is_active, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		s.TerminalID, s.PinCode, s.StartTime, s.EndTime, s.IsActive, s.CreatedBy, s.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE terminals SET status = $2, last_heartbeat = $3 WHERE id = $1",
		s.TerminalID, string(terminaldomain.StatusLeased), s.StartTime)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// EndLease deactivates the session and idles its terminal in one transaction.
// at becomes the session's actual end time.
func (r *PostgresRepository) EndLease(ctx context.Context, sessionID, terminalID int64, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET is_active = FALSE, actual_end_time = $2 WHERE id = $1 AND is_active",
		sessionID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Already deactivated by a concurrent termination; the deferred
		// rollback discards the transaction.
		return nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE terminals SET status = $2 WHERE id = $1",
		terminalID, string(terminaldomain.StatusIdle))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ActivateTerminal refreshes the terminal's heartbeat and keeps it marked
// leased. Used when a PIN resolves successfully.
func (r *PostgresRepository) ActivateTerminal(ctx context.Context, terminalID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE terminals SET status = $2, last_heartbeat = $3 WHERE id = $1",
		terminalID, string(terminaldomain.StatusLeased), at)
	return err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s         domain.Session
		actualEnd sql.NullTime
	)
	err := row.Scan(&s.ID, &s.TerminalID, &s.PinCode, &s.StartTime, &s.EndTime,
		&s.IsActive, &actualEnd, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if actualEnd.Valid {
		s.ActualEndTime = &actualEnd.Time
	}
	return &s, nil
}
