package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request counts and latency per route. The route
// template is the endpoint label so path parameters do not explode the
// label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(started).Seconds())
	}
}
