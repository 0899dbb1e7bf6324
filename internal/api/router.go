package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/swiftparcel/delivery-platform/docs"
	"github.com/swiftparcel/delivery-platform/internal/api/handler"
	"github.com/swiftparcel/delivery-platform/internal/api/middleware"
	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/service"
	"github.com/swiftparcel/delivery-platform/internal/infrastructure/config"
	mongodb "github.com/swiftparcel/delivery-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/swiftparcel/delivery-platform/internal/infrastructure/db/redis"
	"github.com/swiftparcel/delivery-platform/internal/infrastructure/notifications"
	"github.com/swiftparcel/delivery-platform/internal/infrastructure/queue"
	"github.com/swiftparcel/delivery-platform/pkg/logger"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it alongside the event dispatcher, which the caller must Start.
func NewRouter(cfg *config.Config, mongoClient *mongo.Client, rdb *redis.Client) (*echo.Echo, *queue.Dispatcher) {
	log := logger.Get()
	db := mongoClient.Database(cfg.Mongo.Database)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("swiftparcel"))

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	eventRepo := mongodb.NewEventRepository(db)
	tokenStore := redisdb.NewTokenStore(rdb)
	dedup := redisdb.NewDedupChecker(rdb)

	// --- Services ---
	mailer := notifications.NewLogMailer(log)
	authService := service.NewAuthService(userRepo, tokenStore, mailer, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	orderService := service.NewOrderService(orderRepo, userRepo, log)
	userService := service.NewUserService(userRepo, log)
	eventService := service.NewEventService(orderRepo, eventRepo, dedup, log)
	reportService := service.NewReportService(orderRepo, userRepo, log)
	dispatcher := queue.NewDispatcher(cfg.EventWorkers, eventService, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	orderHandler := handler.NewOrderHandler(orderService)
	courierHandler := handler.NewCourierHandler(orderService, dispatcher)
	adminHandler := handler.NewAdminHandler(userService, orderService, reportService)
	healthHandler := handler.NewHealthHandler(mongoClient, rdb)

	authMW := middleware.Auth(cfg.JWTSecret)
	rateLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)
	rateLimiter.TrustProxy = cfg.TrustProxy

	// --- Operational endpoints ---
	e.GET("/healthz", healthHandler.Liveness)
	e.GET("/readyz", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes (rate limited per client IP) ---
	auth := e.Group("/auth", rateLimiter.Middleware())
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/me", authHandler.Me, authMW)
	auth.PUT("/me", authHandler.UpdateProfile, authMW)

	// --- Customer-facing order routes ---
	orders := e.Group("/v1/orders", authMW)
	orders.POST("", orderHandler.Create, middleware.RBAC(domain.RoleCustomer, domain.RoleAdmin))
	orders.GET("", orderHandler.List)
	orders.GET("/:orderNumber", orderHandler.Get)
	orders.PATCH("/:orderNumber/destination", orderHandler.UpdateDestination, middleware.RBAC(domain.RoleCustomer, domain.RoleAdmin))
	orders.POST("/:orderNumber/cancel", orderHandler.Cancel, middleware.RBAC(domain.RoleCustomer, domain.RoleAdmin))

	// --- Courier routes ---
	courier := e.Group("/v1/courier", authMW, middleware.RBAC(domain.RoleCourier))
	courier.GET("/orders", courierHandler.Orders)
	courier.PATCH("/orders/:orderNumber/location", courierHandler.Location)
	courier.POST("/events", courierHandler.Event)
	courier.POST("/events/batch", courierHandler.EventBatch)

	// --- Admin routes ---
	admin := e.Group("/v1/admin", authMW, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/reports", adminHandler.Reports)
	admin.POST("/users/:userID/toggle-active", adminHandler.ToggleActive)
	admin.PATCH("/users/:userID/role", adminHandler.ChangeRole)
	admin.POST("/orders/:orderNumber/assign", adminHandler.AssignCourier)

	return e, dispatcher
}
