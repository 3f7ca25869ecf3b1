package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/medtracker/internal/container"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
)

// perMinute is a Redis rate limiter with a one-minute window. It is a no-op
// when Redis is absent or RATE_LIMIT_ENABLED is false.
func perMinute(max int, keyFn middleware.KeyFunc, allow middleware.AllowFunc) gin.HandlerFunc {
	rdb := container.GetRedis()
	if !container.GetConfig().RateLimitEnabled {
		rdb = nil
	}
	return middleware.RateLimit(rdb, max, time.Minute, keyFn, allow)
}
