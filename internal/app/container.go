package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/api"
	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/offering"
	"github.com/nekogravitycat/service-booking-backend/internal/order"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       zerolog.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	Location *time.Location
	SlotStep time.Duration

	Limiter         ratelimit.Limiter
	RateLimitWindow time.Duration

	// Notifier receives schedule events; nil disables publishing.
	Notifier      schedule.Notifier
	WebhookSecret string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router          *gin.Engine
	JWTManager      *auth.JWTManager
	ScheduleService schedule.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Catalog Module
	offeringRepo := offering.NewPgxRepository(cfg.DBPool)
	offeringService := offering.NewService(offeringRepo)

	// Working Hours Module
	workhoursRepo := workhours.NewPgxRepository(cfg.DBPool)
	workhoursService := workhours.NewService(workhoursRepo, userService)

	// Orders (read-only)
	orderRepo := order.NewPgxRepository(cfg.DBPool)

	// Schedule Module
	scheduleRepo := schedule.NewPgxRepository(cfg.DBPool)
	scheduleService := schedule.NewService(
		scheduleRepo,
		offeringService,
		workhoursService,
		userService,
		orderRepo,
		cfg.Notifier,
		schedule.Config{Location: cfg.Location, SlotStep: cfg.SlotStep},
	)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           cfg.Logger,
		UserService:      userService,
		OfferingService:  offeringService,
		WorkhoursService: workhoursService,
		ScheduleService:  scheduleService,
		JWTManager:       jwtManager,
		Limiter:          cfg.Limiter,
		RateLimitWindow:  cfg.RateLimitWindow,
		WebhookSecret:    cfg.WebhookSecret,
	})

	return &Container{
		Router:          router,
		JWTManager:      jwtManager,
		ScheduleService: scheduleService,
	}
}
