package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/medtracker/internal/interface/http"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

// UserModule mounts account routes under /users.
// Public: POST /users/register, POST /users/login
// Protected: logout, profile, details, password, delete
type UserModule struct {
	Handler  *handlers.UserHandler
	JWT      *helpers.JWTManager
	Sessions middleware.SessionValidator
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, sessions middleware.SessionValidator) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Sessions: sessions}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	users.POST("/register", perMinute(10, middleware.KeyByIPAndPath(), nil), m.Handler.Register)
	users.POST("/login", perMinute(10, middleware.KeyByIPAndPath(), nil), m.Handler.Login)

	auth := users.Group("")
	auth.Use(middleware.Auth(m.JWT, m.Sessions))
	auth.Use(perMinute(120, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.GET("/details", m.Handler.GetProfile)
		auth.PUT("/password", perMinute(5, middleware.KeyByUserID(), nil), m.Handler.ChangePassword)
		auth.DELETE("/delete", m.Handler.Deactivate)
	}
}
