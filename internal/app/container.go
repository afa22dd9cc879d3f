package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/api"
	"github.com/nekogravitycat/lodging-booking-backend/internal/audit"
	"github.com/nekogravitycat/lodging-booking-backend/internal/auth"
	"github.com/nekogravitycat/lodging-booking-backend/internal/booking"
	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/db"
	"github.com/nekogravitycat/lodging-booking-backend/internal/notify"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	DBPool          *pgxpool.Pool
	JWTSecret       string
	JWTTTL          time.Duration
	TxTimeout       time.Duration
	BookingSettings booking.Settings
	KafkaBrokers    []string
	KafkaTopic      string
	Logger          *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	Notifier       notify.Notifier
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	txRunner := db.NewTxRunner(cfg.DBPool, cfg.TxTimeout)
	notifier := notify.New(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Named("notify"))
	recorder := audit.NewPgxRecorder(cfg.DBPool, logger.Named("audit"))

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewService(catalogRepo)

	// Pricing Module
	pricingRepo := pricing.NewPgxRepository(cfg.DBPool)
	pricingService := pricing.NewService(pricingRepo, logger.Named("pricing"))

	// Promotion Module
	promotionRepo := promotion.NewPgxRepository(cfg.DBPool)
	promotionService := promotion.NewService(promotionRepo, logger.Named("promotion"))

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool, txRunner, recorder)
	bookingService := booking.NewService(
		bookingRepo,
		catalogService,
		pricingService,
		promotionService,
		notifier,
		cfg.BookingSettings,
		logger.Named("booking"),
	)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		CatalogService:   catalogService,
		PricingService:   pricingService,
		PromotionService: promotionService,
		BookingService:   bookingService,
		JWTManager:       jwtManager,
		Health:           cfg.DBPool,
		Logger:           logger,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		Notifier:       notifier,
		BookingService: bookingService,
	}
}
