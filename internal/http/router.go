// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/http/handlers"
	"fleetwatch/internal/http/middleware"
	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/presence"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/ws"
)

type RouterDeps struct {
	Tracking *tracking.Service
	Alerts   *alerts.Service
	WS       *ws.Handler
	Verifier auth.Verifier
	DB       *pgxpool.Pool
	Sweeper  *presence.Sweeper

	// SweepInterval bounds how stale the presence sweeper may be before the
	// instance reports unready.
	SweepInterval time.Duration

	Log *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	r.GET("/ws", deps.WS.Serve)

	vehicleHandler := handlers.NewVehicleHandler(deps.Tracking)
	alertHandler := handlers.NewAlertHandler(deps.Alerts)

	api := r.Group("/api", middleware.Auth(deps.Verifier))
	{
		api.GET("/vehicles/live", vehicleHandler.Live)

		api.POST("/alerts", alertHandler.Create)

		admin := api.Group("", middleware.RequireRole(auth.RoleAdmin))
		{
			admin.GET("/vehicles/nearby", vehicleHandler.Nearby)
			admin.GET("/vehicles/:id/history", vehicleHandler.History)
			admin.GET("/alerts/active", alertHandler.Active)
			admin.POST("/alerts/:id/ack", alertHandler.Acknowledge)
			admin.POST("/alerts/:id/resolve", alertHandler.Resolve)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/readyz", readiness(deps))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// readiness fails when the database is unreachable or the presence sweeper
// has not completed a cycle within three intervals.
func readiness(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		if deps.Sweeper != nil {
			last := deps.Sweeper.LastRun()
			if last.IsZero() || time.Since(last) > 3*deps.SweepInterval {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "presence sweeper stalled"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
