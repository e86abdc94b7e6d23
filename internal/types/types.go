// README: Common value types shared across modules.
package types

// ID is an opaque identifier for vehicles, sessions, and alerts.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
