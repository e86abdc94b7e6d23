// README: WebSocket endpoint; authenticates, registers the session, dispatches inbound messages.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

// PositionIngester applies validated position reports.
type PositionIngester interface {
	Ingest(ctx context.Context, r tracking.Report) error
}

// AlertCreator records and broadcasts emergency alerts.
type AlertCreator interface {
	Create(ctx context.Context, cmd alerts.CreateCommand) (*alerts.Alert, error)
}

type Handler struct {
	registry *Registry
	verifier auth.Verifier
	tracking PositionIngester
	alerts   AlertCreator
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *Registry, verifier auth.Verifier, ingester PositionIngester, creator AlertCreator, log *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		verifier: verifier,
		tracking: ingester,
		alerts:   creator,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients come through the external gateway; origin policy
			// is enforced there.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve is the gin handler for GET /ws. The bearer token rides in the
// Authorization header or, for browser WebSocket clients, ?token=.
func (h *Handler) Serve(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	claims, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	session := NewSession(conn, *claims, h.log)
	h.registry.Add(session)
	h.joinDefaults(session)
	h.log.Info("session connected",
		zap.String("session_id", session.ID),
		zap.String("subject", claims.Subject),
		zap.String("role", claims.Role))

	go session.WritePump()
	session.ReadLoop(func(env Envelope) {
		h.dispatch(c.Request.Context(), session, env)
	})

	h.registry.Remove(session.ID)
	session.Close()
	h.log.Info("session disconnected", zap.String("session_id", session.ID))
}

// joinDefaults subscribes the session to its role's observer channel.
// Administrative observers watch the admin channel; everyone else the public
// one. Extra channels arrive via join_channel messages.
func (h *Handler) joinDefaults(s *Session) {
	if s.Claims.Role == auth.RoleAdmin {
		h.registry.Join(s.ID, ChannelAdmin)
		return
	}
	h.registry.Join(s.ID, ChannelPublic)
}

func (h *Handler) dispatch(ctx context.Context, s *Session, env Envelope) {
	switch env.Type {
	case TypeJoinChannel:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Channel == "" {
			s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "channel name required"})
			return
		}
		h.registry.Join(s.ID, p.Channel)
		s.SendEnvelope(TypeAck, AckPayload{Of: env.Type})

	case TypeLeaveChannel:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Channel == "" {
			s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "channel name required"})
			return
		}
		h.registry.Leave(s.ID, p.Channel)
		s.SendEnvelope(TypeAck, AckPayload{Of: env.Type})

	case TypePositionUpdate:
		h.handlePosition(ctx, s, env)

	case TypeEmergencyAlert:
		h.handleAlert(ctx, s, env)

	default:
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "unknown message type"})
	}
}

// positionPayload is the inbound report schema. Timestamp is unix
// milliseconds; zero means "use server time".
type positionPayload struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

func (h *Handler) handlePosition(ctx context.Context, s *Session, env Envelope) {
	if s.Claims.Role != auth.RoleDriver {
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "driver role required"})
		return
	}
	var p positionPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "malformed position payload"})
		return
	}

	loc := tracking.Location{
		Lat:       p.Lat,
		Lng:       p.Lng,
		SpeedKmh:  p.Speed,
		Heading:   p.Heading,
		AccuracyM: p.Accuracy,
	}
	if p.Timestamp > 0 {
		loc.Timestamp = time.UnixMilli(p.Timestamp)
	}

	// The reporter identity is the authenticated session's, never the payload's.
	err := h.tracking.Ingest(ctx, tracking.Report{
		VehicleID: types.ID(s.Claims.Subject),
		Location:  loc,
	})
	switch {
	case err == nil:
		s.SendEnvelope(TypeAck, AckPayload{Of: env.Type})
	case errors.Is(err, tracking.ErrValidation),
		errors.Is(err, tracking.ErrUnauthorized),
		errors.Is(err, tracking.ErrNotFound):
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: err.Error()})
	default:
		h.log.Warn("position ingest failed", zap.String("session_id", s.ID), zap.Error(err))
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "internal error"})
	}
}

type alertPayload struct {
	VehicleID string   `json:"vehicle_id,omitempty"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func (h *Handler) handleAlert(ctx context.Context, s *Session, env Envelope) {
	var p alertPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "malformed alert payload"})
		return
	}
	cmd := alerts.CreateCommand{
		SenderID:   types.ID(s.Claims.Subject),
		SenderRole: s.Claims.Role,
		SenderName: s.Claims.Name,
		Location: tracking.Location{
			Lat:       p.Lat,
			Lng:       p.Lng,
			SpeedKmh:  p.Speed,
			Heading:   p.Heading,
			AccuracyM: p.Accuracy,
			Timestamp: time.Now(),
		},
		Message: p.Message,
	}
	if p.VehicleID != "" {
		v := types.ID(p.VehicleID)
		cmd.VehicleID = &v
	}

	a, err := h.alerts.Create(ctx, cmd)
	switch {
	case err == nil:
		s.SendEnvelope(TypeAck, AckPayload{Of: env.Type})
	case errors.Is(err, alerts.ErrValidation):
		s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: err.Error()})
	default:
		// Broadcast already went out; only durability failed.
		if a != nil {
			s.SendEnvelope(TypeAck, AckPayload{Of: env.Type})
		} else {
			s.SendEnvelope(TypeError, ErrorPayload{Of: env.Type, Message: "internal error"})
		}
		h.log.Warn("alert persistence degraded", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
