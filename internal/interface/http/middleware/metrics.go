package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/obar/pkg/metrics"
)

// Metrics HTTP指标中间件
// path使用路由模板（/checkPurchase/:purchase_uuid），避免每个uuid生成一条时间序列
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
