package api

import (
	"context"
	"net/http"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	orders      *service.OrderService
	catalog     *service.CatalogService
	accounts    *service.AccountService
	db          Pinger
	corsOrigins []string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	catalog *service.CatalogService,
	accounts *service.AccountService,
	db Pinger,
	corsOrigins []string,
) *Handler {
	return &Handler{
		orders:      orders,
		catalog:     catalog,
		accounts:    accounts,
		db:          db,
		corsOrigins: corsOrigins,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger())
	router.Use(cors.New(h.corsConfig()))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.register)
		authRoutes.POST("/login", h.login)
		authRoutes.GET("/me", h.requireAuth(), h.me)
		authRoutes.PUT("/profile", h.requireAuth(), h.updateProfile)
		authRoutes.PUT("/change-password", h.requireAuth(), h.changePassword)
	}

	admin := requireRole(models.RoleAdmin)

	products := api.Group("/products")
	{
		products.GET("", h.optionalAuth(), h.listProducts)
		products.GET("/top", h.topProducts)
		products.GET("/:id", h.optionalAuth(), h.getProduct)
		products.POST("", h.requireAuth(), admin, h.createProduct)
		products.PUT("/:id", h.requireAuth(), admin, h.updateProduct)
		products.DELETE("/:id", h.requireAuth(), admin, h.deleteProduct)
		products.POST("/:id/reviews", h.requireAuth(), h.addReview)
	}

	orders := api.Group("/orders", h.requireAuth())
	{
		orders.POST("", h.placeOrder)
		orders.GET("", admin, h.listOrders)
		orders.GET("/myorders", h.myOrders)
		orders.GET("/:id", h.getOrder)
		orders.GET("/:id/history", h.orderHistory)
		orders.PUT("/:id/pay", h.payOrder)
		orders.PUT("/:id/deliver", admin, h.deliverOrder)
		orders.PUT("/:id/status", admin, h.setOrderStatus)
	}

	users := api.Group("/users", h.requireAuth(), admin)
	{
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.DELETE("/:id", h.deleteUser)
	}
}

// corsConfig allows any origin without credentials when none are configured
func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(h.corsOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = h.corsOrigins
	cfg.AllowCredentials = true
	return cfg
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "healthy",
		"time":    time.Now().Unix(),
	})
}

// readinessCheck reports ready only when the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"status":  "unavailable",
			"message": "Database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "ready",
		"time":    time.Now().Unix(),
	})
}
