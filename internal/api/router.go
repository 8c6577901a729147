package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/logging"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/offering"
	offeringHttp "github.com/nekogravitycat/service-booking-backend/internal/offering/http"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
	scheduleHttp "github.com/nekogravitycat/service-booking-backend/internal/schedule/http"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/service-booking-backend/internal/user/http"
	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
	workhoursHttp "github.com/nekogravitycat/service-booking-backend/internal/workhours/http"
)

// Config holds the dependencies needed to build the router.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       zerolog.Logger

	UserService      user.Service
	OfferingService  offering.Service
	WorkhoursService workhours.Service
	ScheduleService  schedule.Service
	JWTManager       *auth.JWTManager

	Limiter         ratelimit.Limiter
	RateLimitWindow time.Duration
	WebhookSecret   string
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - Logging: Request-scoped zerolog logger and one access line per request.
	// - Metrics: Request count and latency per route.
	r.Use(gin.Recovery(), logging.Middleware(cfg.Logger), metrics.Middleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", payment.SecretHeader}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)
	adminMiddleware := RequireRole(cfg.UserService, user.RoleAdmin)
	staffMiddleware := RequireRole(cfg.UserService, user.RoleStaff, user.RoleAdmin)
	rateLimit := ratelimit.Middleware(cfg.Limiter, cfg.RateLimitWindow)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	offeringHandler := offeringHttp.NewHandler(cfg.OfferingService)
	workhoursHandler := workhoursHttp.NewHandler(cfg.WorkhoursService)
	scheduleHandler := scheduleHttp.NewHandler(cfg.ScheduleService, cfg.UserService)
	paymentHandler := payment.NewHandler(cfg.ScheduleService, cfg.WebhookSecret)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware, rateLimit)
		offeringHttp.RegisterRoutes(v1, offeringHandler, authMiddleware, adminMiddleware)
		workhoursHttp.RegisterRoutes(v1, workhoursHandler, authMiddleware, staffMiddleware)
		scheduleHttp.RegisterRoutes(v1, scheduleHandler, authMiddleware, optionalAuth, staffMiddleware, rateLimit)
		payment.RegisterRoutes(v1, paymentHandler)
	}

	return r
}
