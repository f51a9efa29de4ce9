package domain

import "time"

// Terminal is a registered shared-use endpoint in the facility.
type Terminal struct {
	ID            int64
	Name          string
	Status        Status
	LastHeartbeat *time.Time // nil until the first liveness signal arrives
	CreatedAt     time.Time
}

// Status is the stored, lease-driven terminal state. Liveness-derived display
// states (in use, offline) are computed by the status projector and never
// persisted.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusLeased Status = "leased"
)
