package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookfinder/internal/api"
	"github.com/listenupapp/bookfinder/internal/catalog"
	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/logger"
	"github.com/listenupapp/bookfinder/internal/session"
	"github.com/listenupapp/bookfinder/internal/upstream"
)

// Backend is the configured source of taxonomy and book searches.
type Backend struct {
	Mode     string
	Searcher session.Searcher
	Taxonomy session.TaxonomyProvider
	// Health is nil when the backend has no probe.
	Health   api.HealthChecker
	shutdown func() error
}

// Shutdown implements do.Shutdownable.
func (b *Backend) Shutdown() error {
	if b.shutdown == nil {
		return nil
	}
	return b.shutdown()
}

// ProvideBackend opens the catalog or builds the upstream client, per config.
func ProvideBackend(i do.Injector) (*Backend, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return NewBackend(cfg, log)
}

// NewBackend builds the backend selected by cfg.Backend.Mode. The CLI uses it
// directly, outside the container.
func NewBackend(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Backend.Mode {
	case config.BackendCatalog:
		cat, err := catalog.Open(catalog.Options{
			Path:    cfg.Catalog.Path,
			PerPage: cfg.Catalog.PerPage,
			Logger:  log.Component("catalog"),
		})
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		return &Backend{
			Mode:     cfg.Backend.Mode,
			Searcher: cat,
			Taxonomy: cat,
			Health:   cat,
			shutdown: cat.Shutdown,
		}, nil

	case config.BackendUpstream:
		client := upstream.New(upstream.Options{
			SearchURL:   cfg.Backend.SearchURL,
			TaxonomyURL: cfg.Backend.TaxonomyURL,
			Timeout:     cfg.Backend.Timeout,
			RPS:         cfg.Backend.RPS,
			Burst:       cfg.Backend.Burst,
		}, log.Component("upstream"))

		log.Info("Upstream backend configured",
			"search_url", cfg.Backend.SearchURL,
			"taxonomy_url", cfg.Backend.TaxonomyURL,
			"rps", cfg.Backend.RPS,
		)
		return &Backend{
			Mode:     cfg.Backend.Mode,
			Searcher: client,
			Taxonomy: client,
			shutdown: client.Shutdown,
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Backend.Mode)
	}
}
