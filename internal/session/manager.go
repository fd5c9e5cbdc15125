package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/listenupapp/bookfinder/internal/errors"
	"github.com/listenupapp/bookfinder/internal/genre"
)

// IDPrefix is prepended to every session ID.
const IDPrefix = "ses"

// ManagerOptions configures session lifetime.
type ManagerOptions struct {
	// TTL is how long a session may sit idle before it is dropped.
	TTL time.Duration
	// SweepInterval is how often idle sessions are looked for. Zero disables the sweeper.
	SweepInterval time.Duration
}

// Manager creates, looks up and expires sessions.
type Manager struct {
	taxonomy TaxonomyProvider
	searcher Searcher
	opts     ManagerOptions
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a manager and starts its idle sweeper.
func NewManager(taxonomy TaxonomyProvider, searcher Searcher, opts ManagerOptions, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		taxonomy: taxonomy,
		searcher: searcher,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	if opts.SweepInterval > 0 && opts.TTL > 0 {
		m.wg.Add(1)
		go m.sweepLoop()
	}

	return m
}

// Create fetches the taxonomy, builds a fresh selection tree and registers a
// new session. A taxonomy that cannot be fetched or parsed creates nothing.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	payload, err := m.taxonomy.FetchTaxonomy(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrMalformedTaxonomy) || errors.Is(err, errors.ErrEndpointFailure) {
			return nil, err
		}
		return nil, errors.EndpointFailure(fmt.Errorf("fetch taxonomy: %w", err))
	}

	state, err := genre.BuildTree(payload)
	if err != nil {
		m.logger.Warn("taxonomy rejected", "error", err)
		return nil, err
	}

	id, err := newSessionID()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate session id")
	}

	s := New(id, state, m.searcher, m.logger)

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created",
		"session_id", id,
		"groups", len(state),
		"genres", state.LeafCount(),
		"active_sessions", count,
	)
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.NotFoundf("session %s not found", id)
	}
	return s, nil
}

// Delete ends a session. Searches still in flight complete into the dropped session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return errors.NotFoundf("session %s not found", id)
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle since before now minus TTL and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.TTL)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	removed := 0
	for _, id := range expired {
		// Re-check: the session may have been used since the scan.
		if s, ok := m.sessions[id]; ok && s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.mu.Unlock()

	m.logger.Debug("idle sessions expired", "count", removed)
	return removed
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(time.Now())
		case <-m.done:
			return
		}
	}
}

// Shutdown stops the sweeper. The DI container calls it on teardown.
func (m *Manager) Shutdown() error {
	m.stopOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
	return nil
}

func newSessionID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return IDPrefix + "-" + id, nil
}
