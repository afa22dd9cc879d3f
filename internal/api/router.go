package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/auth"
	"github.com/nekogravitycat/lodging-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/lodging-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	catalogHttp "github.com/nekogravitycat/lodging-booking-backend/internal/catalog/http"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
	pricingHttp "github.com/nekogravitycat/lodging-booking-backend/internal/pricing/http"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
	promotionHttp "github.com/nekogravitycat/lodging-booking-backend/internal/promotion/http"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction     bool
	ProdOrigins      string
	CatalogService   catalog.Service
	PricingService   pricing.Service
	PromotionService promotion.Service
	BookingService   booking.Service
	JWTManager       *auth.JWTManager
	Health           Pinger
	Logger           *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(logger.Named("http")), Recovery(logger))
	r.Use(cors.New(corsConfig(cfg.IsProduction, cfg.ProdOrigins)))

	r.GET("/healthz", healthHandler(cfg.Health))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks that the token carries the admin role.
	adminMiddleware := auth.RequireAdmin()

	authHandler := NewAuthHandler()
	catalogHandler := catalogHttp.NewHandler(cfg.CatalogService, logger)
	pricingHandler := pricingHttp.NewHandler(cfg.PricingService, logger)
	promotionHandler := promotionHttp.NewHandler(cfg.PromotionService, logger)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, logger)

	v1 := r.Group("/v1")
	{
		v1.GET("/me", authMiddleware, authHandler.Me)
		catalogHttp.RegisterRoutes(v1, catalogHandler, authMiddleware, adminMiddleware)
		pricingHttp.RegisterRoutes(v1, pricingHandler, authMiddleware, adminMiddleware)
		promotionHttp.RegisterRoutes(v1, promotionHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
	}

	return r
}

func corsConfig(isProduction bool, prodOrigins string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:8081", // Swagger
	}
	if isProduction {
		var origins []string
		for _, o := range strings.Split(prodOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.AllowOrigins = origins
		if len(origins) == 0 {
			config.AllowOrigins = nil
			config.AllowOriginFunc = func(string) bool { return false }
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}

func healthHandler(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
