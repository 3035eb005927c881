package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.OutcomeStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Session Manager. store may be nil, in which case
// the manager only provides locking.
func NewManager(store ports.OutcomeStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// active reports the number of sessions currently holding lock entries.
func (m *Manager) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// WithLock executes fn while holding the lock for the session.
// An empty session ID runs fn without locking.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return fn(ctx)
	}

	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release even when ctx was cancelled meanwhile
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Save persists the outcome under the lock of its session.
func (m *Manager) Save(ctx context.Context, outcome *domain.Outcome) error {
	if m.store == nil {
		return nil
	}
	return m.WithLock(ctx, outcome.Request.SessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, outcome)
	})
}

// Load retrieves an outcome from the store.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Outcome, error) {
	if m.store == nil {
		return nil, domain.ErrOutcomeNotFound
	}
	return m.store.Load(ctx, id)
}

// Delete removes an outcome, holding the lock of the session it belongs to.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.store == nil {
		return nil
	}
	outcome, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	return m.WithLock(ctx, outcome.Request.SessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return []string{}, nil
	}
	return m.store.List(ctx)
}

// History returns the outcomes recorded for a session, oldest first.
func (m *Manager) History(ctx context.Context, sessionID string) ([]*domain.Outcome, error) {
	ids, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	var history []*domain.Outcome
	for _, id := range ids {
		o, err := m.store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrOutcomeNotFound) {
				continue // expired or deleted between List and Load
			}
			return nil, err
		}
		if o.Request.SessionID == sessionID {
			history = append(history, o)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].StartedAt.Before(history[j].StartedAt)
	})
	return history, nil
}

// Store returns the underlying outcome store.
func (m *Manager) Store() ports.OutcomeStore {
	return m.store
}
