package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/medtracker/internal/interface/http"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

// HealthModule mounts the caller's own health records under /health.
type HealthModule struct {
	Handler  *handlers.HealthHandler
	JWT      *helpers.JWTManager
	Sessions middleware.SessionValidator
}

func NewHealthModule(h *handlers.HealthHandler, jwt *helpers.JWTManager, sessions middleware.SessionValidator) *HealthModule {
	return &HealthModule{Handler: h, JWT: jwt, Sessions: sessions}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	hg := rg.Group("/health")
	hg.Use(middleware.Auth(m.JWT, m.Sessions))
	hg.Use(perMinute(120, middleware.KeyByUserID(), nil))
	{
		hg.GET("", m.Handler.List)
		hg.POST("", perMinute(30, middleware.KeyByUserID(), nil), m.Handler.Record)
		hg.GET("/trend", m.Handler.Trend)
		hg.GET("/trend/chart", m.Handler.TrendChart)
		hg.DELETE("/:id", m.Handler.Delete)
		hg.GET("/:id/report", perMinute(20, middleware.KeyByUserID(), nil), m.Handler.Report)
		hg.POST("/:id/report/archive", perMinute(10, middleware.KeyByUserID(), nil), m.Handler.ArchiveReport)
	}
}
