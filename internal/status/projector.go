// Package status derives what a terminal should display from its stored
// lease state and liveness. The projection is pure: it never touches the
// database and never persists what it computes.
package status

import (
	"fmt"
	"time"

	sessiondomain "cafe-control-plane/internal/session/domain"
)

// DefaultHeartbeatTimeout is how stale a heartbeat may be before the
// terminal counts as offline.
const DefaultHeartbeatTimeout = 2 * time.Second

// DisplayStatus is the derived state of a terminal.
type DisplayStatus string

const (
	StatusIdle    DisplayStatus = "Idle"
	StatusInUse   DisplayStatus = "InUse"
	StatusOffline DisplayStatus = "Offline"
)

// Indicator is the urgency tier for console rendering.
type Indicator string

const (
	IndicatorNeutral Indicator = "neutral"
	IndicatorNormal  Indicator = "normal"
	IndicatorWarning Indicator = "warning"
	IndicatorUrgent  Indicator = "urgent"
	IndicatorAlert   Indicator = "alert"
)

// Urgency thresholds on remaining time.
const (
	urgentThreshold  = 5 * time.Minute
	warningThreshold = 15 * time.Minute
)

// Projection is one terminal's derived display state.
type Projection struct {
	Status           DisplayStatus
	RemainingText    string
	RemainingPercent float64
	Indicator        Indicator
}

// Project computes the display state for a terminal at the given instant.
// active is the terminal's active session, or nil. A terminal without an
// active session is Idle regardless of liveness: offline only means anything
// for a leased terminal, and freshly registered terminals have no heartbeat
// yet.
func Project(now time.Time, lastHeartbeat *time.Time, active *sessiondomain.Session, heartbeatTimeout time.Duration) Projection {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}

	if active == nil || !active.IsActive {
		return Projection{Status: StatusIdle, RemainingText: "Idle", Indicator: IndicatorNeutral}
	}
	if lastHeartbeat == nil || now.Sub(*lastHeartbeat) > heartbeatTimeout {
		return Projection{Status: StatusOffline, RemainingText: "Offline", Indicator: IndicatorNeutral}
	}

	remaining := active.EndTime.Sub(now)
	if remaining <= 0 {
		return Projection{
			Status:           StatusInUse,
			RemainingText:    "Expired",
			RemainingPercent: 0,
			Indicator:        IndicatorAlert,
		}
	}

	total := active.EndTime.Sub(active.StartTime)
	if total <= 0 {
		total = remaining
	}
	percent := float64(remaining) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}

	indicator := IndicatorNormal
	switch {
	case remaining <= urgentThreshold:
		indicator = IndicatorUrgent
	case remaining <= warningThreshold:
		indicator = IndicatorWarning
	}

	return Projection{
		Status:           StatusInUse,
		RemainingText:    formatCountdown(remaining),
		RemainingPercent: percent,
		Indicator:        indicator,
	}
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
