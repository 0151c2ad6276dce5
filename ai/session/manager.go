package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/cache"
)

const (
	DefaultCapacity        = 1000
	DefaultIdleTimeout     = 2 * time.Hour
	DefaultCleanupInterval = 5 * time.Minute
)

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	Capacity        int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	// OnEvict is called when a session leaves memory for any reason.
	OnEvict func(id string, reason cache.EvictReason)
}

// Manager owns the live sessions. Sessions live in memory only and are
// dropped after IdleTimeout without activity or when capacity is exceeded.
type Manager struct {
	sessions *cache.LRUCache[string, *Store]
	logger   *slog.Logger
	config   ManagerConfig
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its cleanup loop. Call Shutdown to
// stop the loop.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	m := &Manager{
		logger: slog.Default().With("component", "session_manager"),
		config: cfg,
		done:   make(chan struct{}),
	}
	m.sessions = cache.NewLRUCache[string, *Store](cfg.Capacity, cfg.IdleTimeout,
		cache.WithSlidingExpiration[string, *Store](),
		cache.WithEvictCallback(m.onEvict),
	)

	go m.cleanupLoop()
	return m
}

// Create validates ctx and registers a new session.
func (m *Manager) Create(ctx board.StartupContext) (*Store, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	s := NewStore(uuid.NewString(), ctx)
	m.sessions.SetWithDefaultTTL(s.ID(), s)
	m.logger.Info("Session created", "session_id", s.ID(), "startup", ctx.Name)
	return s, nil
}

// Get returns a live session and refreshes its idle deadline.
func (m *Manager) Get(id string) (*Store, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove drops a session.
func (m *Manager) Remove(id string) bool {
	return m.sessions.Remove(id)
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (m *Manager) Len() int {
	return m.sessions.Size()
}

// Shutdown stops the cleanup loop.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) onEvict(id string, s *Store, reason cache.EvictReason) {
	m.logger.Info("Session evicted",
		"session_id", id,
		"reason", reason.String(),
		"messages", s.Len(),
		"idle_duration", time.Since(s.LastActive()),
	)
	if m.config.OnEvict != nil {
		m.config.OnEvict(id, reason)
	}
}

// cleanupLoop sweeps expired sessions until Shutdown.
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.sessions.CleanupExpired(); n > 0 {
				m.logger.Debug("Idle sessions swept", "count", n)
			}
		case <-m.done:
			return
		}
	}
}
