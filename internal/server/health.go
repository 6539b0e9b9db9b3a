package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/sheet"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	version = "1.0.0"
)

// Health serves the liveness endpoints. The startup status is fixed at boot
// by the dependency checks in main; the detailed endpoint re-probes live.
type Health struct {
	startupStatus string
	startedAt     time.Time
	sheet         sheet.Accessor
	msgr          lineapi.Messenger
}

func NewHealth(startupStatus string, acc sheet.Accessor, msgr lineapi.Messenger) *Health {
	return &Health{
		startupStatus: startupStatus,
		startedAt:     time.Now(),
		sheet:         acc,
		msgr:          msgr,
	}
}

// Root answers GET / with basic service facts and the endpoint map.
func (h *Health) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "line-registration-bot",
		"version":   version,
		"status":    h.startupStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": gin.H{
			"health":          "/health",
			"detailed_health": "/health/detailed",
			"metrics":         "/metrics",
			"webhook":         "/callback",
			"admin_commands":  "/commands",
		},
	})
}

// Basic answers GET /health from boot-time state only.
func (h *Health) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         h.startupStatus,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"version":        version,
	})
}

// Detailed answers GET /health/detailed with live dependency probes.
func (h *Health) Detailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := 0
	total := 2

	if err := h.sheet.Ping(ctx); err != nil {
		checks["google_sheets"] = gin.H{"status": StatusUnhealthy, "error": err.Error()}
	} else {
		checks["google_sheets"] = gin.H{"status": StatusHealthy}
		healthy++
	}
	if err := h.msgr.BotInfo(ctx); err != nil {
		checks["line_api"] = gin.H{"status": StatusUnhealthy, "error": err.Error()}
	} else {
		checks["line_api"] = gin.H{"status": StatusHealthy}
		healthy++
	}

	overall := StatusDegraded
	code := http.StatusOK
	switch healthy {
	case total:
		overall = StatusHealthy
	case 0:
		overall = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"summary": gin.H{
			"healthy_services": healthy,
			"total_services":   total,
		},
		"checks": checks,
	})
}
