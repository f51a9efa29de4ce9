package domain

import "time"

// AuditLog is one recorded lease or admin event. Rows are append-only.
type AuditLog struct {
	ID         string
	TerminalID *int64 // nil for events not tied to a terminal
	Actor      string
	Action     string
	Detail     string
	CreatedAt  time.Time
}
