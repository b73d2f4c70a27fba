package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		// Route template keeps /reports/:name from exploding label cardinality
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, time.Since(start), reqSize, respSize)
	}
}

// Timer measures an alert delivery
type Timer struct {
	start   time.Time
	metrics *Metrics
	channel string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, channel string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		channel: channel,
	}
}

// Stop stops the timer and records the delivery with its status
func (t *Timer) Stop(status string) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordAlert(t.channel, status, time.Since(t.start))
}
