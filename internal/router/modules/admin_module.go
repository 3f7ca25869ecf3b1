package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/medtracker/internal/interface/http"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

// AdminModule mounts /admin. Everything except /admin/auth/login needs an
// admin token whose flag is still set in the database.
type AdminModule struct {
	Handler  *handlers.AdminHandler
	Auth     *handlers.UserHandler
	JWT      *helpers.JWTManager
	Sessions middleware.SessionValidator
	Admins   middleware.AdminChecker
}

func NewAdminModule(h *handlers.AdminHandler, auth *handlers.UserHandler, jwt *helpers.JWTManager, sessions middleware.SessionValidator, admins middleware.AdminChecker) *AdminModule {
	return &AdminModule{Handler: h, Auth: auth, JWT: jwt, Sessions: sessions, Admins: admins}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.POST("/auth/login", perMinute(5, middleware.KeyByIPAndPath(), nil), m.Auth.AdminLogin)

	protected := admin.Group("")
	protected.Use(middleware.Auth(m.JWT, m.Sessions), middleware.RequireAdmin(m.Admins))
	{
		protected.GET("/users", m.Handler.ListUsers)
		protected.GET("/users/search", perMinute(60, middleware.KeyByUserID(), nil), m.Handler.SearchUsers)
		protected.GET("/users/:userId/health", m.Handler.UserHealth)
		protected.GET("/users/:userId/health/export", m.Handler.ExportUserHealth)
		protected.GET("/users/:userId/health/:recordId/report", m.Handler.RecordReport)
		protected.DELETE("/users/:userId", m.Handler.DeactivateUser)
		protected.DELETE("/users/:userId/health/:recordId", m.Handler.DeleteRecord)
	}
}
