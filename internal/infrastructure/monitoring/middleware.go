package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware counting admin requests
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
	}
}

// Timer measures how long a queue operation blocked
type Timer struct {
	metrics *Metrics
	op      string
	start   time.Time
}

// NewTimer starts timing op
func NewTimer(metrics *Metrics, op string) *Timer {
	return &Timer{
		metrics: metrics,
		op:      op,
		start:   time.Now(),
	}
}

// Stop records the elapsed time
func (t *Timer) Stop() {
	if t.metrics != nil {
		t.metrics.RecordWait(t.op, time.Since(t.start))
	}
}
