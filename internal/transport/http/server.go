package http

import (
	"github.com/gin-gonic/gin"

	"docanalyst/internal/bootstrap"
	"docanalyst/internal/transport/http/handler"
	"docanalyst/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.Upload.MaxBytes()

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.AuthService)
	documentHandler := handler.NewDocumentHandler(app.AnalysisService, app.Config.Upload.MaxBytes())
	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	RegisterDocumentRoutes(v1.Group("/documents", authJWT), documentHandler)

	return router
}

func RegisterDocumentRoutes(group *gin.RouterGroup, h *handler.DocumentHandler) {
	group.POST("", h.Create)
	group.POST("/upload", h.Upload)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/analyze", h.Analyze)
	group.GET("/:id/exchanges", h.Exchanges)
}
