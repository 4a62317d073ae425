// Package handler exposes the relay over HTTP: the websocket endpoint plus a
// few read-only JSON endpoints for health checks and dashboards.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/logging"

	"roomrelay/backend/internal/chathub"
	"roomrelay/backend/internal/config"
	"roomrelay/backend/internal/ratelimit"
)

const queryTimeout = 2 * time.Second

// Handler holds the hub and what new connections are configured with.
type Handler struct {
	Hub     *chathub.ManagerService
	Config  *config.Config
	Limiter ratelimit.Limiter

	origins originPolicy
	log     logging.LeveledLogger
}

func NewHandler(hub *chathub.ManagerService, cfg *config.Config, limiter ratelimit.Limiter) *Handler {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	log := hub.Logger("api")
	return &Handler{
		Hub:     hub,
		Config:  cfg,
		Limiter: limiter,
		origins: newOriginPolicy(cfg.AllowedOrigins, log),
		log:     log,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Rooms lists the build rooms, the same snapshot rooms-updated carries.
func (h *Handler) Rooms(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	list, err := h.Hub.BuildRooms(ctx)
	if err != nil {
		h.log.Warnf("list build rooms: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stats reports live connection and room counts.
func (h *Handler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	stats, err := h.Hub.Stats(ctx)
	if err != nil {
		h.log.Warnf("stats: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
