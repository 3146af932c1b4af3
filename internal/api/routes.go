package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobtrail/internal/api/middleware"
	"jobtrail/internal/auth"
	"jobtrail/internal/llm"
)

// RegisterRoutes 注册 /api 前缀下的全部业务路由。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	sessionService *auth.SessionService,
	googleClient *auth.GoogleClient,
	stateSigner *auth.StateSigner,
	llmClient *llm.Client,
	logger *slog.Logger,
	frontendURL string,
) {
	authHandler := NewAuthHandler(db, googleClient, sessionService, stateSigner, logger, frontendURL)
	applicationHandler := NewApplicationHandler(db)
	documentHandler := NewDocumentHandler(db, llmClient, logger)
	profileHandler := NewProfileHandler(db)
	statsHandler := NewStatsHandler(db)
	authMiddleware := middleware.AuthMiddleware(sessionService)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/google", authHandler.LoginGoogle)
			authGroup.GET("/callback", authHandler.Callback)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		applicationGroup := api.Group("/applications")
		applicationGroup.Use(authMiddleware)
		{
			applicationGroup.GET("", applicationHandler.ListApplications)
			applicationGroup.POST("", applicationHandler.CreateApplication)
			applicationGroup.PUT("/:id", applicationHandler.UpdateApplication)
			applicationGroup.DELETE("/:id", applicationHandler.DeleteApplication)
		}

		documentGroup := api.Group("/documents")
		documentGroup.Use(authMiddleware)
		{
			documentGroup.POST("/generate", documentHandler.GenerateDocument)
			documentGroup.GET("/:applicationId", documentHandler.ListDocuments)
		}

		profileGroup := api.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.POST("", profileHandler.UpsertProfile)
		}

		api.GET("/stats", authMiddleware, statsHandler.GetStats)
	}
}
