package router

import (
	"github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/internal/container"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
	pginfra "github.com/oksasatya/medtracker/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/medtracker/internal/interface/http"
	"github.com/oksasatya/medtracker/internal/router/modules"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

// Services groups the application services shared by the modules.
type Services struct {
	Users   *application.UserService
	Health  *application.HealthService
	Admin   *application.AdminService
	Reports *application.ReportService
}

// BuildServices wires services over the given repositories using the
// container's infrastructure. Optional backends that are not configured stay
// nil and their features degrade.
func BuildServices(users repo.UserRepository, records repo.HealthRecordRepository) *Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	var mail application.Publisher
	if p := container.GetRabbitPub(); p != nil && cfg.MailSendEnabled {
		mail = p
	}
	var store application.ObjectStore
	if c := container.GetGCS(); c != nil && cfg.GCSBucket != "" {
		store = helpers.NewGCSStore(c, cfg.GCSBucket)
	}

	userSvc := application.NewUserService(users, container.GetJWT(), container.GetRedis(), logger, container.GetES(), cfg.ESUsersIndex, mail, cfg)
	healthSvc := application.NewHealthService(records, users, logger, mail, cfg, cfg.Location())
	adminSvc := application.NewAdminService(userSvc, healthSvc, users, logger)
	reportSvc := application.NewReportService(healthSvc, adminSvc, store, cfg.AppName, logger)

	return &Services{Users: userSvc, Health: healthSvc, Admin: adminSvc, Reports: reportSvc}
}

// Mount adds every feature module for the given services.
func Mount(r *Registry, s *Services) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	r.Add(modules.NewUserModule(handlers.NewUserHandler(s.Users, logger), jwt, s.Users))
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(s.Health, s.Reports, logger), jwt, s.Users))
	r.Add(modules.NewAdminModule(
		handlers.NewAdminHandler(s.Admin, s.Reports, logger),
		handlers.NewUserHandler(s.Users, logger),
		jwt, s.Users, s.Admin,
	))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}

// InitModules builds postgres-backed services and registers all modules.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	pool := container.GetPGPool()
	r.Add(Liveness(pool.Ping))
	Mount(r, BuildServices(pginfra.NewUserRepository(pool), pginfra.NewHealthRecordRepository(pool)))
}
