package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thryve/staffing-api/internal/middleware"
	"github.com/thryve/staffing-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parseTimeQuery accepts RFC3339 or plain dates. Returns the zero time for
// empty or malformed values; callers fall back to their defaults.
func parseTimeQuery(c *gin.Context, key string) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
