package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/thryve/staffing-api/internal/models"
)

// Audit captures the request origin on the context so audit entries written
// by the service layer carry the caller's IP and user agent.
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := models.ClientInfo{
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		c.Request = c.Request.WithContext(models.WithClientInfo(c.Request.Context(), info))
		c.Next()
	}
}
