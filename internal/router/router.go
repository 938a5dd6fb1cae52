package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/handler"
	"github.com/waraqati/waraqa-backend/internal/middleware"
	"github.com/waraqati/waraqa-backend/internal/response"
	"github.com/waraqati/waraqa-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Worksheet *handler.WorksheetHandler
	Session   *handler.SessionHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Generation endpoints fan out to paid API calls; keep them behind a
	// modest per-IP budget.
	genLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireTeacherJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Worksheet Group (Teacher JWT) ──────────────────────────────
	worksheets := router.Group("/api/v1/worksheets")
	worksheets.Use(middleware.RequireTeacherJWT(authService))
	{
		worksheets.POST("", genLimiter.Middleware(), handlers.Worksheet.Generate)
		worksheets.GET("", handlers.Worksheet.List)
		worksheets.GET("/:id", handlers.Worksheet.Get)
		worksheets.DELETE("/:id", handlers.Worksheet.Delete)
		worksheets.POST("/:id/images", genLimiter.Middleware(), handlers.Worksheet.AddImage)
		worksheets.POST("/:id/speech", genLimiter.Middleware(), handlers.Worksheet.Speech)
		worksheets.POST("/:id/sessions", handlers.Session.Start)
	}

	// ─── 3. Session Group (Teacher JWT) ────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	sessions.Use(middleware.RequireTeacherJWT(authService))
	{
		sessions.GET("/:id", handlers.Session.Get)
		sessions.GET("/:id/snapshot", handlers.Session.Snapshot)
		sessions.DELETE("/:id", handlers.Session.Close)
		sessions.POST("/:id/answers", handlers.Session.Answer)
		sessions.POST("/:id/interactions", handlers.Session.Interact)
		sessions.POST("/:id/reveals", handlers.Session.Reveal)
		sessions.POST("/:id/evaluations", genLimiter.Middleware(), handlers.Session.Evaluate)
		sessions.POST("/:id/bonus", genLimiter.Middleware(), handlers.Session.Bonus)
		sessions.POST("/:id/timer", handlers.Session.StartTimer)
		sessions.PATCH("/:id/view", handlers.Session.UpdateView)
	}

	// ─── 4. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
