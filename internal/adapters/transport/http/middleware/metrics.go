package middleware

import (
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(ts))
	}
}
