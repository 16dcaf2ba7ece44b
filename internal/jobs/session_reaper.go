package jobs

import (
	"context"
	"log"
	"time"
)

// DefaultSessionIdleTimeout is how long a conversation may sit unused.
const DefaultSessionIdleTimeout = 24 * time.Hour

// IdleEvicter drops sessions idle since before cutoff.
type IdleEvicter interface {
	EvictIdle(cutoff time.Time) int
}

// SessionReaper frees conversations nobody has touched for a while.
type SessionReaper struct {
	sessions    IdleEvicter
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessionReaper(sessions IdleEvicter, idleTimeout time.Duration) *SessionReaper {
	if idleTimeout <= 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	return &SessionReaper{
		sessions:    sessions,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func (r *SessionReaper) Name() string { return "session-reaper" }

func (r *SessionReaper) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cutoff := r.now().UTC().Add(-r.idleTimeout)
	if n := r.sessions.EvictIdle(cutoff); n > 0 {
		log.Printf("session reaper: evicted %d idle sessions", n)
	}
	return nil
}
