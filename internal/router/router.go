package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/handler"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/middleware"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/session"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Question  *handler.QuestionHandler
	Exam      *handler.ExamHandler
	User      *handler.UserHandler
	Dashboard *handler.DashboardHandler
	Panel     *handler.PanelHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	identityService *identity.Service,
	authorizer session.Authorizer,
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/admin/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/admin/me", middleware.RequireAdminJWT(identityService), handlers.Auth.Me)
		auth.POST("/admin/logout", middleware.RequireAdminJWT(identityService), handlers.Auth.Logout)
	}

	// ─── 2. WebSocket Group (In-Band Auth) ─────────────────────────────
	// The panel stream authenticates in-band: the session controller on the
	// connection pushes the login view and gates everything behind it.
	ws := router.Group("/ws/v1")
	{
		ws.GET("/admin/panel", handlers.Panel.PanelStream)
	}

	// ─── 3. Admin Group (JWT + Admin Record) ───────────────────────────
	// Every request re-checks the authorization record so a revoked admin
	// loses access immediately, valid token or not.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAdminJWT(identityService),
		middleware.RequireAdminRecord(authorizer),
	)
	{
		// Question management
		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.GET("/questions/:id", handlers.Question.GetQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)

		// Exam management
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/:id", handlers.Exam.GetExam)
		adminAPI.PUT("/exams/:id", handlers.Exam.UpdateExam)
		adminAPI.DELETE("/exams/:id", handlers.Exam.DeleteExam)

		// User management
		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.POST("/users", handlers.User.CreateUser)
		adminAPI.GET("/users/:id", handlers.User.GetUser)
		adminAPI.PUT("/users/:id", handlers.User.UpdateUser)
		adminAPI.DELETE("/users/:id", handlers.User.DeleteUser)

		// Identity management
		adminAPI.POST("/identities", handlers.Auth.CreateIdentity)

		// Dashboard
		adminAPI.GET("/dashboard", handlers.Dashboard.GetStats)
	}

	return router
}
