package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs only requests that recorded errors on the gin context.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		fields := logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}
		if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
			fields["correlation_id"] = cid
		}
		if ip, ok := utils.GetClientIPFromContext(c.Request.Context()); ok {
			fields["client_ip"] = ip
		}
		logger.WithFields(fields).Error(c.Errors.String())
	}
}
