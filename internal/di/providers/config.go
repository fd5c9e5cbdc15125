// Package providers contains dependency injection providers for the bookfinder server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/logger"
	"github.com/listenupapp/bookfinder/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting bookfinder server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend", cfg.Backend.Mode,
	)

	return log, nil
}

// ProvideValidator provides the input validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
