// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/tracking"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeTrackingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracking.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, tracking.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAlertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, alerts.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, alerts.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, alerts.ErrInvalidTransition), errors.Is(err, alerts.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
