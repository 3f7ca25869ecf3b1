package middleware

import (
	"expvar"
	"strconv"

	"github.com/gin-gonic/gin"
)

var (
	httpRequests = expvar.NewMap("http_requests")
	httpStatus   = expvar.NewMap("http_status")
)

// Metrics counts requests per route template and per status code in expvar,
// served at /debug/vars.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.Add(c.Request.Method+" "+route, 1)
		httpStatus.Add(strconv.Itoa(c.Writer.Status()), 1)
	}
}
