package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crmforge/accounts-api/internal/api/handler"
	"github.com/crmforge/accounts-api/internal/api/middleware"
	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
	"github.com/crmforge/accounts-api/internal/core/service"
	"github.com/crmforge/accounts-api/internal/infrastructure/config"
	mongodb "github.com/crmforge/accounts-api/internal/infrastructure/db/mongo"
	redisdb "github.com/crmforge/accounts-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit recorder is created by the caller because its worker lifecycle
// is tied to the process context, not to the router.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger, audit ports.AuditRecorder) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.RateLimit.Attempts, cfg.RateLimit.Window)

	authService := service.NewAuthService(userRepo, audit, cfg.JWTSecret, cfg.TokenTTL(), log)
	userService := service.NewUserService(userRepo, auditRepo, audit, log)
	assignmentService := service.NewAssignmentService(userRepo, audit, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, assignmentService)

	authMiddleware := middleware.Auth(authService, log)
	rateLimit := middleware.RateLimit(limiter, log)

	// --- Auth routes (unauthenticated, rate-limited) ---
	auth := e.Group("/auth", rateLimit)
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/signin", authHandler.Signin)

	// --- User routes (bearer token required) ---
	users := e.Group("/users", authMiddleware)
	users.GET("/me", userHandler.Me)
	users.GET("/", userHandler.List)
	users.GET("/managed-customers/", userHandler.ManagedCustomers, middleware.RBAC(domain.RoleManager))
	users.GET("/activity/", userHandler.Activity, middleware.RBAC(domain.RoleAdmin))
	users.POST("/", userHandler.Create, middleware.RBAC(domain.RoleAdmin, domain.RoleManager))
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
