// README: Emergency alert record and status transition rules.
package alerts

import (
	"time"

	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// AllowedTransitions represents the alert lifecycle as code. Status only
// moves forward; acknowledged may be skipped.
var AllowedTransitions = map[Status][]Status{
	StatusActive:       {StatusAcknowledged, StatusResolved},
	StatusAcknowledged: {StatusResolved},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved:
		return true
	}
	return false
}

type Alert struct {
	ID         types.ID          `json:"id"`
	SenderID   types.ID          `json:"sender_id"`
	SenderRole string            `json:"sender_role"`
	SenderName string            `json:"sender_name"`
	VehicleID  *types.ID         `json:"vehicle_id,omitempty"`
	Location   tracking.Location `json:"location"`
	Message    string            `json:"message,omitempty"`
	Status     Status            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}
