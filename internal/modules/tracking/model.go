// README: Reporter (vehicle) model, location snapshot, and validation rules.
package tracking

import (
	"fmt"
	"time"

	"fleetwatch/internal/types"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Location is the last accepted position report. It is overwritten whole on
// each accepted update, never merged field by field.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	SpeedKmh  float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	AccuracyM *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrValidation, l.Lat)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrValidation, l.Lng)
	}
	if l.SpeedKmh < 0 {
		return fmt.Errorf("%w: negative speed %v", ErrValidation, l.SpeedKmh)
	}
	return nil
}

func (l Location) Point() types.Point {
	return types.Point{Lat: l.Lat, Lng: l.Lng}
}

// Vehicle is the subset of the vehicle entity this subsystem reads and writes.
// Display fields and verification flags are owned by external workflows.
//
// IsOnline is materialized bookkeeping for the sweeper: set true on every
// accepted report, set false exactly once by a successful offline transition.
// The authoritative notion of "online" stays "last_seen within threshold".
type Vehicle struct {
	ID                 types.ID
	Number             string
	Plate              string
	VehicleType        string
	VerificationStatus VerificationStatus
	IsActive           bool
	IsOnline           bool
	CurrentLocation    *Location
	LastSeen           *time.Time
}

// Reportable tells whether the vehicle may participate in presence tracking.
func (v *Vehicle) Reportable() bool {
	return v.VerificationStatus == VerificationApproved && v.IsActive
}

// HistoryEntry is one append-only position record.
type HistoryEntry struct {
	ID        int64
	VehicleID types.ID
	Location  Location
	CreatedAt time.Time
}

// Report is an inbound position report tied to an authenticated reporter.
type Report struct {
	VehicleID types.ID
	Location  Location
}

// LocationBroadcast is the outbound location-update payload.
type LocationBroadcast struct {
	VehicleID   types.ID `json:"vehicle_id"`
	Number      string   `json:"number"`
	Plate       string   `json:"plate"`
	VehicleType string   `json:"vehicle_type"`
	Location    Location `json:"location"`
	Online      bool     `json:"online"`
}
