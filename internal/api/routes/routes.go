package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/mingainspire/better-bolt/internal/api/handlers"
	"github.com/mingainspire/better-bolt/internal/api/middleware"
)

type Deps struct {
	Chat      *handlers.ChatHandler
	Models    *handlers.ModelHandler
	Keys      *handlers.KeyHandler
	Artifacts *handlers.ArtifactHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.Use(middleware.Selection())

	api.POST("/chat", d.Chat.Chat)

	api.GET("/models", d.Models.Models)
	api.GET("/providers", d.Models.Providers)
	api.GET("/examples", d.Models.Examples)

	api.GET("/keys", d.Keys.List)
	api.PUT("/keys/:provider", d.Keys.Set)

	api.GET("/artifacts", d.Artifacts.List)
	api.POST("/artifacts", d.Artifacts.Save)

	// WebSocket chat session
	r.GET("/ws/chat", d.WS.ChatWS)
}
