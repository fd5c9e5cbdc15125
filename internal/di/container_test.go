package di

import (
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookfinder/internal/api"
	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/logger"
	"github.com/listenupapp/bookfinder/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "error"},
		Server:  config.ServerConfig{Port: "0", RateLimitRPS: 10, RateLimitBurst: 10},
		Backend: config.BackendConfig{Mode: config.BackendCatalog},
		Catalog: config.CatalogConfig{PerPage: 30},
		Session: config.SessionConfig{TTL: time.Minute, SweepInterval: time.Minute},
	}
}

func TestBootstrap_CatalogBackend(t *testing.T) {
	injector := NewContainer()
	do.OverrideValue(injector, testConfig())
	do.OverrideValue(injector, logger.Discard())

	require.NoError(t, Bootstrap(injector))

	srv, err := do.Invoke[*api.Server](injector)
	require.NoError(t, err)
	assert.NotNil(t, srv)

	manager := do.MustInvoke[*session.Manager](injector)
	assert.Equal(t, 0, manager.Len())

	assert.Nil(t, injector.Shutdown())
}

func TestBootstrap_BadBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = "/nonexistent/seed.json"

	injector := NewContainer()
	do.OverrideValue(injector, cfg)
	do.OverrideValue(injector, logger.Discard())

	err := Bootstrap(injector)
	assert.Error(t, err)
}
