package config_fx

import (
	"os"

	"go.uber.org/fx"

	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(provideAppConfig)

func provideAppConfig() services.AppConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return services.AppConfig{
		BaseURL:     os.Getenv("APP_BASE_URL"),
		Environment: env,
		ServiceName: "belvieu-portal",
	}
}
