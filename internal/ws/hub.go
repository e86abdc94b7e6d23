// README: Channel broadcaster; fans messages out to sessions joined at publish time.
package ws

import (
	"go.uber.org/zap"

	"fleetwatch/internal/metrics"
	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

// Hub implements the broadcaster interfaces the domain modules define.
// Publishing to a channel with zero members is a no-op; sessions joining
// after a publish do not receive it.
type Hub struct {
	registry *Registry
	log      *zap.Logger
}

func NewHub(registry *Registry, log *zap.Logger) *Hub {
	return &Hub{registry: registry, log: log}
}

// Publish delivers one message to every current member of the channel. Each
// delivery is independent and non-blocking: a slow or closed session drops
// its copy without affecting the others.
func (h *Hub) Publish(channel, msgType string, payload any) {
	msg, err := Encode(msgType, payload)
	if err != nil {
		h.log.Warn("encode broadcast failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(channel).Inc()
	for _, s := range h.registry.Members(channel) {
		s.Send(msg)
	}
}

// BroadcastLocation implements tracking.Broadcaster: accepted position
// updates go to both observer channels.
func (h *Hub) BroadcastLocation(update tracking.LocationBroadcast) {
	h.Publish(ChannelPublic, TypeLocation, update)
	h.Publish(ChannelAdmin, TypeLocation, update)
}

// BroadcastOffline implements presence.Broadcaster.
func (h *Hub) BroadcastOffline(id types.ID) {
	payload := OfflinePayload{VehicleID: string(id)}
	h.Publish(ChannelPublic, TypeOffline, payload)
	h.Publish(ChannelAdmin, TypeOffline, payload)
}

// BroadcastAlert implements alerts.Broadcaster: the full alert record goes to
// the administrative channel only.
func (h *Hub) BroadcastAlert(a alerts.Alert) {
	h.Publish(ChannelAdmin, TypeAlert, a)
}
