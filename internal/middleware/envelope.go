package middleware

import (
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/gin-gonic/gin"
)

// AbortWithStatus ends the chain with a service status envelope, the shape
// every reply of the prediction service carries.
func AbortWithStatus(c *gin.Context, httpCode int, code domain.StatusCode, description string) {
	c.Set("status_code", int(code))
	c.AbortWithStatusJSON(httpCode, gin.H{
		"status": gin.H{"code": int(code), "description": description},
	})
}
