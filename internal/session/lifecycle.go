package session

import (
	"sync"
	"time"
)

// State enumerates the lifecycle states.
type State int

const (
	StateUnauthenticated State = iota
	StateActive
	StateWarning
	StateExpired
)

// String returns the lowercase state name for logs and JSON.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// Snapshot is the externally visible session state, recomputed on demand for
// UI display. The armed timers stay authoritative for expiry.
type Snapshot struct {
	State         State
	IsActive      bool
	ShowWarning   bool
	TimeRemaining time.Duration
	LastActivity  time.Time
}

// Lifecycle is the per-session inactivity state machine:
// Unauthenticated -> Active -> Warning -> Expired, with activity and explicit
// extension returning the session to Active. A single pair of armed timers
// (warning, expiry) exists at any instant; every reset stops both before
// re-arming, so a burst of activity can never leave duplicate callbacks
// pending against a stale window.
type Lifecycle struct {
	mu        sync.Mutex
	clock     Clock
	policy    Policy
	onWarning func()
	onExpire  func()

	state        State
	lastActivity time.Time
	warnTimer    Timer
	expireTimer  Timer
	generation   uint64
	expireFired  bool
}

// NewLifecycle builds a lifecycle in the Unauthenticated state. onExpire is
// invoked at most once, on forced expiry only; voluntary logout never fires
// it.
func NewLifecycle(clock Clock, policy Policy, onWarning, onExpire func()) *Lifecycle {
	return &Lifecycle{
		clock:     clock,
		policy:    policy,
		onWarning: onWarning,
		onExpire:  onExpire,
		state:     StateUnauthenticated,
	}
}

// Policy returns the policy the lifecycle was armed with.
func (l *Lifecycle) Policy() Policy {
	return l.policy
}

// Begin transitions Unauthenticated -> Active and arms the inactivity window.
func (l *Lifecycle) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateUnauthenticated {
		return
	}
	l.armLocked()
}

// Touch records an activity signal: the inactivity window restarts from now
// and any pending warning is cleared. Reports whether the session was still
// alive to receive it.
func (l *Lifecycle) Touch() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateActive && l.state != StateWarning {
		return false
	}
	if !l.policy.TrackActivity {
		return false
	}
	l.armLocked()
	return true
}

// Extend is the explicit user response to the expiry warning. It restarts
// the full timeout window rather than adding Policy.Extend to the current
// deadline; the two semantics differ and this implementation keeps the
// full-restart behavior.
func (l *Lifecycle) Extend() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateActive && l.state != StateWarning {
		return false
	}
	l.armLocked()
	return true
}

// Expire forces the session into the Expired state, cancelling pending
// timers. Safe to call repeatedly; the expiry callback fires at most once.
func (l *Lifecycle) Expire() {
	l.mu.Lock()
	l.expireLocked()
	fire := !l.expireFired && l.onExpire != nil
	if fire {
		l.expireFired = true
	}
	cb := l.onExpire
	l.mu.Unlock()
	if fire {
		cb()
	}
}

// Logout is the voluntary path out of any state. Timers are cancelled and no
// callback fires.
func (l *Lifecycle) Logout() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTimersLocked()
	l.state = StateUnauthenticated
}

// Snapshot derives the display state from the last activity timestamp.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := Snapshot{
		State:        l.state,
		IsActive:     l.state == StateActive || l.state == StateWarning,
		ShowWarning:  l.state == StateWarning,
		LastActivity: l.lastActivity,
	}
	if snap.IsActive {
		remaining := l.policy.Timeout - l.clock.Now().Sub(l.lastActivity)
		if remaining < 0 {
			remaining = 0
		}
		snap.TimeRemaining = remaining
	}
	return snap
}

// armLocked cancels both timers and schedules a fresh warning/expiry pair
// for the full timeout window. Caller holds l.mu.
func (l *Lifecycle) armLocked() {
	l.stopTimersLocked()
	l.generation++
	gen := l.generation
	l.lastActivity = l.clock.Now()
	l.state = StateActive
	if warnAfter := l.policy.Timeout - l.policy.Warning; warnAfter > 0 && l.policy.Warning > 0 {
		l.warnTimer = l.clock.AfterFunc(warnAfter, func() { l.fireWarning(gen) })
	}
	l.expireTimer = l.clock.AfterFunc(l.policy.Timeout, func() { l.fireExpiry(gen) })
}

func (l *Lifecycle) stopTimersLocked() {
	if l.warnTimer != nil {
		l.warnTimer.Stop()
		l.warnTimer = nil
	}
	if l.expireTimer != nil {
		l.expireTimer.Stop()
		l.expireTimer = nil
	}
}

func (l *Lifecycle) expireLocked() {
	l.stopTimersLocked()
	l.state = StateExpired
}

// fireWarning runs on the timer goroutine. The generation check discards
// callbacks that lost a race with a reset.
func (l *Lifecycle) fireWarning(gen uint64) {
	l.mu.Lock()
	if gen != l.generation || l.state != StateActive {
		l.mu.Unlock()
		return
	}
	l.state = StateWarning
	cb := l.onWarning
	l.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (l *Lifecycle) fireExpiry(gen uint64) {
	l.mu.Lock()
	if gen != l.generation || (l.state != StateActive && l.state != StateWarning) {
		l.mu.Unlock()
		return
	}
	l.expireLocked()
	fire := !l.expireFired && l.onExpire != nil
	if fire {
		l.expireFired = true
	}
	cb := l.onExpire
	l.mu.Unlock()
	if fire {
		cb()
	}
}
