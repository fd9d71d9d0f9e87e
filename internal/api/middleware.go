package api

import (
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// requestLogger logs one line per request through zap
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := identityFrom(c); id != nil {
			fields = append(fields, zap.String("account_id", id.AccountID))
		}

		logger := util.GetLogger()
		if c.Writer.Status() >= 500 {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// requireAuth rejects requests without a valid bearer token
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.accounts.Verify(c.Request.Context(), bearerToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		setIdentity(c, user)
		c.Next()
	}
}

// optionalAuth attaches the identity when a valid token is present
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := h.accounts.VerifyOptional(c.Request.Context(), bearerToken(c)); user != nil {
			setIdentity(c, user)
		}
		c.Next()
	}
}

// requireRole must run after requireAuth
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(identityFrom(c), role); err != nil {
			respondError(c, err)
			return
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(identityKey, auth.IdentityOf(user))
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

func userFrom(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}
	return v.(*models.User), nil
}
