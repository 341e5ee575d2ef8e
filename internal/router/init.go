package router

import (
	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/internal/container"
	handlers "github.com/oksasatya/stockmaster/internal/interface/http"
	"github.com/oksasatya/stockmaster/internal/router/modules"
)

type AuthModuleDeps struct {
	Service  *application.Service
	Auth     *handlers.AuthHandler
	Accounts *handlers.AccountHandler
	Health   *handlers.HealthHandler
}

func buildAuthDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	service := application.NewService(
		container.GetAccountRepo(),
		application.NewCredentialValidator(cfg.PasswordMinLength, cfg.StrictEmail),
		application.NewOTPIssuer(cfg.OTPTTL),
		container.GetTokens(),
		container.GetNotifier(),
		container.GetIndexer(),
		logger,
	)

	return AuthModuleDeps{
		Service:  service,
		Auth:     handlers.NewAuthHandler(service, logger),
		Accounts: handlers.NewAccountHandler(service, logger),
		Health:   handlers.NewHealthHandler(container.GetAccountRepo(), logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildAuthDeps()
	cfg := container.GetConfig()

	r.Engine.GET("/healthz", deps.Health.Health)

	r.Add(modules.NewAuthModule(deps.Auth, container.GetTokens(), container.GetRedis(), cfg.RateLimitEnabled))
	r.Add(modules.NewAccountModule(deps.Accounts, container.GetTokens(), container.GetRedis(), cfg.RateLimitEnabled))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis(), cfg.RateLimitEnabled))
	}
}
