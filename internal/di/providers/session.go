package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/logger"
	"github.com/listenupapp/bookfinder/internal/session"
)

// ProvideSessionManager provides the session manager. Its Shutdown stops the
// idle sweeper.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	backend := do.MustInvoke[*Backend](i)

	return session.NewManager(backend.Taxonomy, backend.Searcher, session.ManagerOptions{
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
	}, log.Component("session")), nil
}
