package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// ErrRecordCorrupt indicates a persisted session record that no longer
// parses. The manager treats this as fatal for the session.
var ErrRecordCorrupt = errors.New("session: record corrupt")

const recordKeyPrefix = "session:record:"

// Record is the durable session marker, written on login and extension and
// read back when a session has to be rebuilt after the process lost its
// in-memory timers.
type Record struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Roles      []string   `json:"roles"`
	LoginAt    time.Time  `json:"login_at"`
	ExtendedAt *time.Time `json:"extended_at,omitempty"`
}

// Anchor returns the instant the current timeout window is measured from.
func (r Record) Anchor() time.Time {
	if r.ExtendedAt != nil {
		return *r.ExtendedAt
	}
	return r.LoginAt
}

// Store persists session records in Redis.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Put writes the record with the given TTL. The TTL is a backstop only; the
// lifecycle timers remain authoritative for expiry.
func (s *Store) Put(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, recordKey(id), data, ttl).Err()
}

// Get reads a record. Missing records map to shared.ErrNotFound, unparseable
// ones to ErrRecordCorrupt.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, shared.ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, ErrRecordCorrupt
	}
	if rec.UserID == "" || rec.LoginAt.IsZero() {
		return Record{}, ErrRecordCorrupt
	}
	return rec, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, recordKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Each iterates all persisted records, invoking fn with the session ID and
// raw payload. Used by the sweep job.
func (s *Store) Each(ctx context.Context, fn func(id string, raw []byte) error) error {
	iter := s.client.Scan(ctx, 0, recordKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return err
		}
		if err := fn(key[len(recordKeyPrefix):], data); err != nil {
			return err
		}
	}
	return iter.Err()
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}
