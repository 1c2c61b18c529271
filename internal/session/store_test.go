package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-portal/meridian-portal/internal/shared"
	_ "github.com/meridian-portal/meridian-portal/testing"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec := Record{
		UserID:  "u-42",
		Email:   "manager@meridian.local",
		Roles:   []string{"manager"},
		LoginAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, store.Put(ctx, "sess-1", rec, time.Hour))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, rec, got)
	require.Equal(t, rec.LoginAt, got.Anchor())
}

func TestStoreMissingRecord(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestStoreCorruptRecord(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(recordKey("sess-bad"), "{not json"))

	_, err := store.Get(context.Background(), "sess-bad")
	require.ErrorIs(t, err, ErrRecordCorrupt)
}

func TestStoreRejectsIncompleteRecord(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(recordKey("sess-empty"), `{"roles":["viewer"]}`))

	_, err := store.Get(context.Background(), "sess-empty")
	require.ErrorIs(t, err, ErrRecordCorrupt)
}

func TestStoreEachVisitsAllRecords(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec := Record{UserID: "u-1", LoginAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, "a", rec, time.Hour))
	require.NoError(t, store.Put(ctx, "b", rec, time.Hour))

	seen := map[string]bool{}
	require.NoError(t, store.Each(ctx, func(id string, raw []byte) error {
		seen[id] = true
		return nil
	}))
	require.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func TestExtendedRecordAnchor(t *testing.T) {
	login := time.Unix(1_700_000_000, 0).UTC()
	extended := login.Add(30 * time.Minute)
	rec := Record{UserID: "u-1", LoginAt: login, ExtendedAt: &extended}
	require.Equal(t, extended, rec.Anchor())
}
