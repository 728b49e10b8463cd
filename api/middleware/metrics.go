package middleware

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	metricsStart = time.Now()

	totalRequests int64
	inFlight      int64

	statusMu     sync.Mutex
	statusCounts = map[string]int64{}
)

// Metrics 请求计数中间件
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&totalRequests, 1)
		atomic.AddInt64(&inFlight, 1)
		defer atomic.AddInt64(&inFlight, -1)

		c.Next()

		class := statusClass(c.Writer.Status())
		statusMu.Lock()
		statusCounts[class]++
		statusMu.Unlock()
	}
}

// GetMetrics 返回当前计数快照
func GetMetrics() map[string]interface{} {
	statusMu.Lock()
	byStatus := make(map[string]int64, len(statusCounts))
	for k, v := range statusCounts {
		byStatus[k] = v
	}
	statusMu.Unlock()

	return map[string]interface{}{
		"uptime":         time.Since(metricsStart).Round(time.Second).String(),
		"total_requests": atomic.LoadInt64(&totalRequests),
		"in_flight":      atomic.LoadInt64(&inFlight),
		"by_status":      byStatus,
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
