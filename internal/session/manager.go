package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-portal/meridian-portal/internal/observability"
	"github.com/meridian-portal/meridian-portal/internal/rbac"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// CookieName identifies the portal session cookie.
const CookieName = "meridian_session"

// storeTimeout bounds Redis calls made from timer goroutines, which have no
// request context to inherit.
const storeTimeout = 5 * time.Second

// LogoutFunc is the caller-supplied logout callback. It must be idempotent:
// it runs on forced expiry and may also run on voluntary logout.
type LogoutFunc func(sessionID string)

type liveSession struct {
	lifecycle *Lifecycle
	record    Record
}

// Manager owns every authenticated session's lifecycle. It resolves the
// session policy from the principal's highest role, persists records through
// the store, and rebuilds sessions whose in-memory timers were lost (the
// server-side analog of recovering a backgrounded tab).
type Manager struct {
	mu       sync.Mutex
	clock    Clock
	registry *rbac.Registry
	store    *Store
	logger   *slog.Logger
	metrics  *observability.Metrics
	onLogout LogoutFunc
	live     map[string]*liveSession
}

// NewManager constructs a Manager.
func NewManager(clock Clock, registry *rbac.Registry, store *Store, logger *slog.Logger, metrics *observability.Metrics, onLogout LogoutFunc) *Manager {
	return &Manager{
		clock:    clock,
		registry: registry,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		onLogout: onLogout,
		live:     make(map[string]*liveSession),
	}
}

// PolicyFor resolves the session policy for a role set: the highest-priority
// known role decides the tier, anything else falls back to viewer.
func (m *Manager) PolicyFor(roleNames []string) Policy {
	return PolicyForRoles(m.registry, roleNames)
}

// Start opens a session for an authenticated principal: persists the record,
// arms the lifecycle, and returns the new session ID.
func (m *Manager) Start(ctx context.Context, userID, email string, roles []string) (string, Snapshot, error) {
	id := uuid.NewString()
	policy := m.PolicyFor(roles)
	rec := Record{
		UserID:  userID,
		Email:   email,
		Roles:   append([]string(nil), roles...),
		LoginAt: m.clock.Now(),
	}
	if err := m.store.Put(ctx, id, rec, policy.Timeout); err != nil {
		return "", Snapshot{}, err
	}
	ls := m.track(id, rec, policy)
	m.metrics.SessionOpened()
	if m.logger != nil {
		m.logger.Info("session started", slog.String("session_id", id), slog.String("user_id", userID))
	}
	return id, ls.lifecycle.Snapshot(), nil
}

// Activity records an activity signal, restarting the inactivity window.
func (m *Manager) Activity(ctx context.Context, id string) (Snapshot, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if !ls.lifecycle.Touch() {
		return Snapshot{}, shared.ErrSessionExpired
	}
	return ls.lifecycle.Snapshot(), nil
}

// Extend restarts the full timeout window in response to the expiry warning
// and stamps the persisted record for cross-restart continuity.
func (m *Manager) Extend(ctx context.Context, id string) (Snapshot, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if !ls.lifecycle.Extend() {
		return Snapshot{}, shared.ErrSessionExpired
	}
	now := m.clock.Now()
	m.mu.Lock()
	ls.record.ExtendedAt = &now
	rec := ls.record
	m.mu.Unlock()
	if err := m.store.Put(ctx, id, rec, ls.lifecycle.Policy().Timeout); err != nil {
		return Snapshot{}, err
	}
	m.metrics.SessionEvent(observability.SessionEventExtension)
	return ls.lifecycle.Snapshot(), nil
}

// State returns the display snapshot for the session, rebuilding it from the
// persisted record when the in-memory lifecycle is gone.
func (m *Manager) State(ctx context.Context, id string) (Snapshot, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return ls.lifecycle.Snapshot(), nil
}

// Principal materializes the request principal for the session.
func (m *Manager) Principal(ctx context.Context, id string) (*shared.Principal, error) {
	ls, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := ls.lifecycle.Snapshot()
	if !snap.IsActive {
		return nil, shared.ErrSessionExpired
	}
	m.mu.Lock()
	rec := ls.record
	m.mu.Unlock()
	return &shared.Principal{
		UserID:      rec.UserID,
		Email:       rec.Email,
		Roles:       append([]string(nil), rec.Roles...),
		Permissions: m.registry.MaterializedPermissions(rec.Roles),
		SessionID:   id,
	}, nil
}

// Logout is the voluntary teardown path. Unknown sessions are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if ok {
		ls.lifecycle.Logout()
		m.metrics.SessionClosed(observability.SessionEventLogout)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	if m.onLogout != nil {
		m.onLogout(id)
	}
	return nil
}

// lookup finds the live session or rebuilds it from the persisted record.
func (m *Manager) lookup(ctx context.Context, id string) (*liveSession, error) {
	m.mu.Lock()
	ls, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return ls, nil
	}
	return m.resume(ctx, id)
}

// resume re-reads the persisted record for a session the process no longer
// tracks. A stale or corrupt record forces logout immediately rather than
// guessing a safe default; otherwise the session comes back Active with a
// fresh window.
func (m *Manager) resume(ctx context.Context, id string) (*liveSession, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return nil, shared.ErrSessionExpired
		case errors.Is(err, ErrRecordCorrupt):
			if m.logger != nil {
				m.logger.Warn("corrupt session record, forcing logout", slog.String("session_id", id))
			}
			_ = m.store.Delete(ctx, id)
			m.metrics.SessionEvent(observability.SessionEventSwept)
			if m.onLogout != nil {
				m.onLogout(id)
			}
			return nil, shared.ErrSessionExpired
		default:
			return nil, err
		}
	}
	policy := m.PolicyFor(rec.Roles)
	if m.clock.Now().Sub(rec.Anchor()) > policy.Timeout {
		_ = m.store.Delete(ctx, id)
		m.metrics.SessionEvent(observability.SessionEventSwept)
		if m.onLogout != nil {
			m.onLogout(id)
		}
		return nil, shared.ErrSessionExpired
	}
	ls := m.track(id, rec, policy)
	m.metrics.SessionOpened()
	if m.logger != nil {
		m.logger.Info("session resumed", slog.String("session_id", id), slog.String("user_id", rec.UserID))
	}
	return ls, nil
}

// track registers a lifecycle for the session and arms it. If another
// goroutine registered the same ID first, the existing session wins.
func (m *Manager) track(id string, rec Record, policy Policy) *liveSession {
	lc := NewLifecycle(m.clock, policy,
		func() { m.warned(id) },
		func() { m.expired(id) },
	)
	ls := &liveSession{lifecycle: lc, record: rec}
	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		m.mu.Unlock()
		return existing
	}
	m.live[id] = ls
	m.mu.Unlock()
	lc.Begin()
	return ls
}

func (m *Manager) warned(id string) {
	m.metrics.SessionEvent(observability.SessionEventWarning)
	if m.logger != nil {
		m.logger.Info("session expiry warning", slog.String("session_id", id))
	}
}

// expired runs on a timer goroutine when the inactivity window elapsed with
// no intervening activity or extension.
func (m *Manager) expired(id string) {
	m.mu.Lock()
	_, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, id); err != nil && m.logger != nil {
		m.logger.Warn("delete expired session record", slog.String("session_id", id), slog.Any("error", err))
	}
	m.metrics.SessionClosed(observability.SessionEventExpiry)
	if m.logger != nil {
		m.logger.Info("session expired", slog.String("session_id", id))
	}
	if m.onLogout != nil {
		m.onLogout(id)
	}
}
