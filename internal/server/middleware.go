package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID    = "X-Request-Id"
	contextKeyUsername = "username"
)

// RequestID tags every request with an id, honoring one supplied by the
// client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger returns a Gin middleware that logs each request using zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.Writer.Header().Get(headerRequestID)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Auth enforces a valid console token on protected routes.
func Auth(admins AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := admins.ValidateToken(extractToken(c))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		c.Set(contextKeyUsername, username)
		c.Next()
	}
}

// CurrentUsername extracts the authenticated operator from context.
func CurrentUsername(c *gin.Context) string {
	v, _ := c.Get(contextKeyUsername)
	username, _ := v.(string)
	return username
}

func extractToken(c *gin.Context) string {
	token := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
