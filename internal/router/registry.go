package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/pkg/response"
)

// Registry collects modules and the middleware shared by every route under
// the API prefix.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine, prefix string, logger *logrus.Logger) *Registry {
	return &Registry{Engine: engine, API: engine.Group(prefix), logger: logger}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

// RegisterAll applies shared middleware, lets each module mount its routes and
// answers unknown routes with the standard envelope. It returns the mounted
// routes.
func (r *Registry) RegisterAll() gin.RoutesInfo {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}

	r.Engine.HandleMethodNotAllowed = true
	r.Engine.NoRoute(func(c *gin.Context) {
		response.Error[any](c, http.StatusNotFound, "route not found", nil)
	})
	r.Engine.NoMethod(func(c *gin.Context) {
		response.Error[any](c, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	routes := r.Engine.Routes()
	if r.logger != nil {
		for _, rt := range routes {
			r.logger.WithFields(logrus.Fields{"method": rt.Method, "path": rt.Path}).Debug("route mounted")
		}
		r.logger.WithField("routes", len(routes)).Info("http routes registered")
	}
	return routes
}

// Liveness answers GET /livez with 200 while ping succeeds and 503 otherwise.
func Liveness(ping func(ctx context.Context) error) Module {
	return ModuleFunc(func(rg *gin.RouterGroup) {
		rg.GET("/livez", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				response.Error[any](c, http.StatusServiceUnavailable, "database unreachable", nil)
				return
			}
			response.Success(c, http.StatusOK, gin.H{"database": "ok"}, "alive", nil)
		})
	})
}
