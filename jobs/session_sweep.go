package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-portal/meridian-portal/internal/observability"
	"github.com/meridian-portal/meridian-portal/internal/rbac"
	"github.com/meridian-portal/meridian-portal/internal/session"
)

// SessionSweeper deletes stale and corrupt session records. The in-process
// lifecycle timers already expire sessions the server is tracking; the sweep
// covers records whose timers were lost, such as after a restart when the
// session was never resumed.
type SessionSweeper struct {
	store    *session.Store
	registry *rbac.Registry
	clock    session.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewSessionSweeper constructs a sweeper.
func NewSessionSweeper(store *session.Store, registry *rbac.Registry, clock session.Clock, logger *slog.Logger, metrics *observability.Metrics) *SessionSweeper {
	return &SessionSweeper{store: store, registry: registry, clock: clock, logger: logger, metrics: metrics}
}

// Handle processes TaskSessionSweep tasks.
func (j *SessionSweeper) Handle(ctx context.Context, t *asynq.Task) error {
	swept, err := j.Sweep(ctx)
	if err != nil {
		return err
	}
	if swept > 0 && j.logger != nil {
		j.logger.Info("session sweep", slog.Int("swept", swept))
	}
	return nil
}

// Sweep scans every persisted record and removes the ones past their policy
// timeout or no longer parseable. Corrupt records are removed unconditionally
// rather than guessed at.
func (j *SessionSweeper) Sweep(ctx context.Context) (int, error) {
	now := j.clock.Now()
	swept := 0
	err := j.store.Each(ctx, func(id string, raw []byte) error {
		var rec session.Record
		if unmarshalErr := json.Unmarshal(raw, &rec); unmarshalErr != nil || rec.UserID == "" || rec.LoginAt.IsZero() {
			if j.logger != nil {
				j.logger.Warn("sweeping corrupt session record", slog.String("session_id", id))
			}
			return j.remove(ctx, id, &swept)
		}
		policy := session.PolicyForRoles(j.registry, rec.Roles)
		if now.Sub(rec.Anchor()) > policy.Timeout {
			return j.remove(ctx, id, &swept)
		}
		return nil
	})
	return swept, err
}

func (j *SessionSweeper) remove(ctx context.Context, id string, swept *int) error {
	if err := j.store.Delete(ctx, id); err != nil {
		return err
	}
	*swept++
	j.metrics.SessionEvent(observability.SessionEventSwept)
	return nil
}
