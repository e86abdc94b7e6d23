// README: Vehicle read endpoints: live snapshot, proximity search, history.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

type VehicleHandler struct {
	tracking *tracking.Service
}

func NewVehicleHandler(svc *tracking.Service) *VehicleHandler {
	return &VehicleHandler{tracking: svc}
}

// Live returns every vehicle currently online.
func (h *VehicleHandler) Live(c *gin.Context) {
	vehicles, err := h.tracking.Live(c.Request.Context())
	if err != nil {
		writeTrackingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": vehicles, "count": len(vehicles)})
}

// Nearby returns IDs of online vehicles within radius_km of the given point.
func (h *VehicleHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radiusKm := 1.0
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			writeError(c, http.StatusBadRequest, "radius_km must be a positive number")
			return
		}
		radiusKm = r
	}

	ids, err := h.tracking.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radiusKm)
	if err != nil {
		writeTrackingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicle_ids": ids, "count": len(ids)})
}

// History returns a vehicle's position trail since the given RFC3339 instant.
// Without ?since= the trail covers the last hour.
func (h *VehicleHandler) History(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing vehicle id")
		return
	}
	since := time.Now().Add(-time.Hour)
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	entries, err := h.tracking.History(c.Request.Context(), types.ID(id), since)
	if err != nil {
		writeTrackingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicle_id": id, "entries": entries, "count": len(entries)})
}
