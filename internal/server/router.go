// Package server assembles the HTTP surface: webhook, health, metrics, and
// the manual admin commands.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linebot-registration/internal/admin"
	"linebot-registration/internal/webhook"
)

func NewRouter(wh *webhook.Handler, ah *admin.Handler, hh *Health, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", hh.Root)
	r.GET("/health", hh.Basic)
	r.GET("/health/detailed", hh.Detailed)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	r.POST("/callback", wh.Callback)
	r.POST("/commands/send-test-email", ah.SendTestEmail)

	return r
}
