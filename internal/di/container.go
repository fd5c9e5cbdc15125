// Package di provides dependency injection configuration for the bookfinder server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/di/providers"
	"github.com/listenupapp/bookfinder/internal/logger"
	"github.com/listenupapp/bookfinder/internal/session"
	"github.com/listenupapp/bookfinder/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Search backend
	do.Provide(injector, providers.ProvideBackend)

	// Sessions
	do.Provide(injector, providers.ProvideSessionManager)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP listener.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.Backend](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*session.Manager](injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
