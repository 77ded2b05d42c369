package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const readyPingTimeout = 2 * time.Second

// @Summary Health check
// @Description Liveness probe. Always answers 200 while the process serves requests.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// @Summary Readiness check
// @Description Readiness probe. Reports the store as unavailable when it does not answer a ping.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is ready"
// @Failure 503 {object} map[string]interface{} "Store unavailable"
// @Router /ready [get]
func readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyPingTimeout)
	defer cancel()

	if err := appStore.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Readiness check failed to reach the store")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "store": "ok"})
}
