package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/medtracker/internal/interface/middleware"
)

var startedAt = time.Now()

func init() {
	expvar.Publish("uptime_seconds", expvar.Func(func() any {
		return int64(time.Since(startedAt).Seconds())
	}))
}

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

// Register exposes expvar at /debug/vars: request, status and rate-limit
// counters plus process uptime. Private networks skip the limiter.
func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := perMinute(120, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
