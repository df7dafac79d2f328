package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/orders"
	"github.com/example/storefront/pkg/ratelimit"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuditReader serves the admin's per-order audit trail. The mongo
// repository satisfies it; it is nil when no audit store is configured.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, orderID string, limit int64) ([]*repository.AuditLog, error)
}

// Server wires the HTTP surface: storefront reads, checkout, payment
// confirmation and the admin back office.
type Server struct {
	config   *config.Config
	store    *repository.Store
	cache    *repository.RedisRepository // nil when redis is down
	audit    AuditReader
	orders   *orders.Service
	sessions *auth.Sessions
	limiter  ratelimit.Limiter
	logger   *zap.Logger
	router   *gin.Engine
}

func NewServer(cfg *config.Config, store *repository.Store, cache *repository.RedisRepository, audit AuditReader, orderSvc *orders.Service, sessions *auth.Sessions, limiter ratelimit.Limiter, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:   cfg,
		store:    store,
		cache:    cache,
		audit:    audit,
		orders:   orderSvc,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
		router:   router,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	{
		// Storefront reads
		api.GET("/services", s.listServices)
		api.GET("/services/:id", s.getService)
		api.GET("/services/:id/slots", s.serviceSlots)
		api.GET("/products", s.listProducts)
		api.GET("/products/:id", s.getProduct)
		api.GET("/testimonials", s.listTestimonials)
		api.GET("/hero", s.getHero)

		// Checkout
		ordersGroup := api.Group("/orders")
		{
			ordersGroup.POST("/create", s.createOrder)
			ordersGroup.GET("", s.listOrders)
			ordersGroup.GET("/:id/status", s.orderStatus)
		}

		// Payment confirmation, both paths
		payments := api.Group("/payments")
		{
			payments.POST("/verify", s.verifyPayment)
			payments.POST("/webhook", s.paymentWebhook)
		}

		// Admin back office
		api.POST("/admin/login", s.adminLogin)
		api.POST("/admin/logout", s.adminLogout)

		admin := api.Group("/admin")
		admin.Use(s.adminAuthMiddleware())
		{
			admin.GET("/stats", s.adminStats)
			admin.GET("/revenue", s.adminRevenue)
			admin.GET("/payments", s.adminPayments)
			admin.GET("/users", s.adminListUsers)
			admin.GET("/orders/:id/audit", s.orderAudit)

			admin.GET("/services", s.adminListServices)
			admin.POST("/services", s.createService)
			admin.PUT("/services/:id", s.updateService)
			admin.DELETE("/services/:id", s.deleteService)

			admin.GET("/products", s.adminListProducts)
			admin.POST("/products", s.createProduct)
			admin.PUT("/products/:id", s.updateProduct)
			admin.DELETE("/products/:id", s.deleteProduct)

			admin.GET("/slots", s.adminListSlots)
			admin.POST("/slots", s.createSlot)
			admin.DELETE("/slots/:id", s.deleteSlot)

			admin.GET("/hero", s.getHero)
			admin.POST("/hero", s.saveHero)

			admin.GET("/testimonials", s.adminListTestimonials)
			admin.POST("/testimonials", s.createTestimonial)
			admin.PUT("/testimonials/:id", s.updateTestimonial)
			admin.DELETE("/testimonials/:id", s.deleteTestimonial)
		}

		// Fulfillment is an admin action on the public order resource.
		api.PUT("/orders/:id/fulfill", s.adminAuthMiddleware(), s.fulfillOrder)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// rateLimitMiddleware applies the coarse per-IP cap over the whole API. The
// order-creation handler applies its own tighter cap on top.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := s.limiter.Allow(c.Request.Context(), "global:"+c.ClientIP(), s.config.RateLimit.GlobalLimit)
		if err != nil {
			s.logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || s.sessions.Verify(token) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}
