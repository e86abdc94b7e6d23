// README: Tagged message envelopes exchanged over live sessions.
package ws

import "encoding/json"

// Channel names known at boot. Additional names are accepted and created
// lazily on first join.
const (
	ChannelAdmin  = "admin"
	ChannelPublic = "public"
)

// Inbound message kinds.
const (
	TypePositionUpdate = "position_update"
	TypeJoinChannel    = "join_channel"
	TypeLeaveChannel   = "leave_channel"
	TypeEmergencyAlert = "emergency_alert"
)

// Outbound message kinds.
const (
	TypeLocation = "location"
	TypeOffline  = "offline"
	TypeAlert    = "alert"
	TypeAck      = "ack"
	TypeError    = "error"
)

// Envelope is the wire framing for every message in both directions. Data is
// decoded into the kind-specific payload after the type tag is read, and
// validated before any state mutation.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	Channel string `json:"channel"`
}

type AckPayload struct {
	Of string `json:"of"`
}

type ErrorPayload struct {
	Of      string `json:"of,omitempty"`
	Message string `json:"message"`
}

type OfflinePayload struct {
	VehicleID string `json:"vehicle_id"`
}

// Encode marshals a typed payload into its envelope.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}
