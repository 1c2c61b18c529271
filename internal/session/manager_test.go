package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-portal/meridian-portal/internal/observability"
	"github.com/meridian-portal/meridian-portal/internal/rbac"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

type managerFixture struct {
	manager  *Manager
	store    *Store
	clock    *fakeClock
	registry *rbac.Registry
	mr       *miniredis.Miniredis
	logouts  *atomic.Int32
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock(time.Unix(1_700_000_000, 0).UTC())
	registry := rbac.NewRegistry()
	store := NewStore(client)
	var logouts atomic.Int32
	manager := NewManager(clock, registry, store, nil, observability.NewMetrics(),
		func(string) { logouts.Add(1) })
	return &managerFixture{
		manager:  manager,
		store:    store,
		clock:    clock,
		registry: registry,
		mr:       mr,
		logouts:  &logouts,
	}
}

func (f *managerFixture) newSibling(t *testing.T) *Manager {
	t.Helper()
	return NewManager(f.clock, f.registry, f.store, nil, observability.NewMetrics(), func(string) {})
}

func TestManagerStartAndState(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, snap, err := f.manager.Start(ctx, "u-3", "manager@meridian.local", []string{"manager"})
	require.NoError(t, err)
	require.True(t, snap.IsActive)
	require.Equal(t, PolicyForRole("manager").Timeout, snap.TimeRemaining)

	got, err := f.manager.State(ctx, id)
	require.NoError(t, err)
	require.True(t, got.IsActive)

	rec, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "u-3", rec.UserID)
}

func TestManagerExpiryForcesLogoutOnce(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-5", "viewer@meridian.local", []string{"viewer"})
	require.NoError(t, err)

	f.clock.Advance(61 * time.Minute)
	require.Equal(t, int32(1), f.logouts.Load())

	_, err = f.store.Get(ctx, id)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.manager.State(ctx, id)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestManagerActivityKeepsSessionAlive(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-5", "viewer@meridian.local", []string{"viewer"})
	require.NoError(t, err)

	f.clock.Advance(59 * time.Minute)
	_, err = f.manager.Activity(ctx, id)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	snap, err := f.manager.State(ctx, id)
	require.NoError(t, err)
	require.True(t, snap.IsActive)
	require.Equal(t, int32(0), f.logouts.Load())
}

func TestManagerExtendStampsRecord(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-2", "admin@meridian.local", []string{"admin"})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	snap, err := f.manager.Extend(ctx, id)
	require.NoError(t, err)
	require.Equal(t, PolicyForRole("admin").Timeout, snap.TimeRemaining)

	rec, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec.ExtendedAt)
	require.True(t, rec.Anchor().Equal(f.clock.Now()))
}

func TestManagerResumesSessionAfterRestart(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-3", "manager@meridian.local", []string{"manager"})
	require.NoError(t, err)

	// A second manager sharing the store stands in for a restarted process
	// that lost its in-memory timers.
	restarted := f.newSibling(t)
	f.clock.Advance(10 * time.Minute)

	snap, err := restarted.State(ctx, id)
	require.NoError(t, err)
	require.True(t, snap.IsActive)
	require.Equal(t, PolicyForRole("manager").Timeout, snap.TimeRemaining, "resume resets activity")
}

func TestManagerResumeStaleRecordForcesLogout(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	rec := Record{
		UserID:  "u-5",
		Email:   "viewer@meridian.local",
		Roles:   []string{"viewer"},
		LoginAt: f.clock.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, f.store.Put(ctx, "stale", rec, time.Hour))

	_, err := f.manager.State(ctx, "stale")
	require.ErrorIs(t, err, shared.ErrSessionExpired)
	require.Equal(t, int32(1), f.logouts.Load())

	_, err = f.store.Get(ctx, "stale")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestManagerCorruptRecordForcesLogout(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mr.Set(recordKey("bad"), "{broken"))

	_, err := f.manager.State(ctx, "bad")
	require.ErrorIs(t, err, shared.ErrSessionExpired)
	require.Equal(t, int32(1), f.logouts.Load())
	require.False(t, f.mr.Exists(recordKey("bad")))
}

func TestManagerLogoutIsIdempotent(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-4", "employee@meridian.local", []string{"employee"})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx, id))
	require.NoError(t, f.manager.Logout(ctx, id))
	require.Equal(t, int32(2), f.logouts.Load(), "callback must tolerate repeat invocation")

	_, err = f.manager.State(ctx, id)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestManagerPrincipalMaterializesPermissions(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	id, _, err := f.manager.Start(ctx, "u-4", "employee@meridian.local", []string{"employee"})
	require.NoError(t, err)

	principal, err := f.manager.Principal(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"employee"}, principal.Roles)
	require.Equal(t, []string{"files.create", "files.read", "hr.read"}, principal.Permissions)
	require.Equal(t, id, principal.SessionID)
}
