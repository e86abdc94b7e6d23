// README: Emergency alert endpoints: create, list active, lifecycle updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetwatch/internal/http/middleware"
	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

type AlertHandler struct {
	alerts *alerts.Service
}

func NewAlertHandler(svc *alerts.Service) *AlertHandler {
	return &AlertHandler{alerts: svc}
}

type createAlertReq struct {
	VehicleID string   `json:"vehicle_id,omitempty"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Speed     float64  `json:"speed,omitempty"`
	Heading   float64  `json:"heading,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Create raises an alert over REST. The live-session path is the primary one;
// this exists for clients without an open connection.
func (h *AlertHandler) Create(c *gin.Context) {
	var req createAlertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	claims := middleware.CallerClaims(c)
	cmd := alerts.CreateCommand{
		SenderID:   types.ID(claims.Subject),
		SenderRole: claims.Role,
		SenderName: claims.Name,
		Location: tracking.Location{
			Lat:       req.Lat,
			Lng:       req.Lng,
			SpeedKmh:  req.Speed,
			Heading:   req.Heading,
			AccuracyM: req.Accuracy,
		},
		Message: req.Message,
	}
	if req.VehicleID != "" {
		v := types.ID(req.VehicleID)
		cmd.VehicleID = &v
	}

	a, err := h.alerts.Create(c.Request.Context(), cmd)
	if err != nil && a == nil {
		writeAlertError(c, err)
		return
	}
	// a != nil with err != nil means the alert went out but durability is
	// degraded; the sender still gets a success.
	writeJSON(c, http.StatusCreated, a)
}

// Active lists alerts still requiring attention, newest first.
func (h *AlertHandler) Active(c *gin.Context) {
	list, err := h.alerts.Active(c.Request.Context())
	if err != nil {
		writeAlertError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"alerts": list, "count": len(list)})
}

// Acknowledge moves an active alert to acknowledged.
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	h.updateStatus(c, alerts.StatusAcknowledged)
}

// Resolve closes an alert out.
func (h *AlertHandler) Resolve(c *gin.Context) {
	h.updateStatus(c, alerts.StatusResolved)
}

func (h *AlertHandler) updateStatus(c *gin.Context, to alerts.Status) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing alert id")
		return
	}
	a, err := h.alerts.UpdateStatus(c.Request.Context(), types.ID(id), to)
	if err != nil {
		writeAlertError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}
