package router

import (
	"ai-companion-chat/backend/internal/api"
	"ai-companion-chat/backend/internal/ws"
	"ai-companion-chat/backend/pkg/config"
	"ai-companion-chat/backend/pkg/di"
	"ai-companion-chat/backend/pkg/errors"
	"ai-companion-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)
	chatHandler := api.NewChatHandler(r.Container.ChatService, r.Container.ProactiveService)
	settingsHandler := api.NewSettingsHandler(r.Container.SettingsService, r.Container.ChatService)
	momentHandler := api.NewMomentHandler(r.Container.MomentService)

	r.setupHealthRoutes()

	v1 := r.Engine.Group("/api/v1")
	{
		characterRoutes := v1.Group("/characters")
		{
			characterRoutes.POST("", characterHandler.CreateCharacter)
			characterRoutes.GET("", characterHandler.ListCharacters)
			characterRoutes.GET("/:id", characterHandler.GetCharacter)
			characterRoutes.PUT("/:id", characterHandler.UpdateCharacter)
			characterRoutes.DELETE("/:id", characterHandler.DeleteCharacter)
			characterRoutes.GET("/:id/members", characterHandler.GroupMembers)
			characterRoutes.GET("/:id/relationships", characterHandler.Relationships)
			characterRoutes.PUT("/:id/relationships", characterHandler.UpsertRelationship)
		}

		stickerRoutes := v1.Group("/stickers")
		{
			stickerRoutes.GET("", characterHandler.Stickers)
			stickerRoutes.POST("", characterHandler.CreateSticker)
			stickerRoutes.DELETE("/:id", characterHandler.DeleteSticker)
		}

		chatRoutes := v1.Group("/chats/:chatId")
		{
			chatRoutes.GET("/messages", chatHandler.Messages)
			chatRoutes.POST("/messages", chatHandler.SendMessage)
			chatRoutes.POST("/read", chatHandler.MarkRead)
			chatRoutes.GET("/unread", chatHandler.UnreadCount)
			chatRoutes.DELETE("/messages", chatHandler.ClearHistory)
		}
		v1.POST("/proactive/tick", chatHandler.ProactiveTick)

		momentRoutes := v1.Group("/moments")
		{
			momentRoutes.GET("", momentHandler.ListMoments)
			momentRoutes.POST("", momentHandler.CreateMoment)
			momentRoutes.DELETE("/:id", momentHandler.DeleteMoment)
			momentRoutes.POST("/:id/like", momentHandler.LikeMoment)
			momentRoutes.GET("/:id/comments", momentHandler.Comments)
			momentRoutes.POST("/:id/comments", momentHandler.CreateComment)
		}

		settingsRoutes := v1.Group("/settings")
		{
			settingsRoutes.GET("", settingsHandler.GetSettings)
			settingsRoutes.PUT("", settingsHandler.PutSettings)
			settingsRoutes.POST("/test", settingsHandler.TestConnection)
		}
	}

	// WebSocket route
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Container.Hub, c)
	})
}

// CORS must allow the WebSocket upgrade headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
