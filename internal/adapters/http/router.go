// Package http wires the gin router: static UI, the discovery REST surface
// and the WebSocket signaling endpoint.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/adapters/signal"
	"github.com/sastranest/nest/internal/app/orch"
	"github.com/sastranest/nest/internal/config"
	"github.com/sastranest/nest/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// GET /api/rooms — public room directory with live participant counts.
	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := o.RoomList(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rooms"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	})

	// GET /api/rooms/:name — room detail with the live participant list.
	api.GET("/rooms/:name", func(c *gin.Context) {
		room, err := o.RoomInfo(c.Request.Context(), domain.RoomName(c.Param("name")))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch room"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room})
	})

	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}
