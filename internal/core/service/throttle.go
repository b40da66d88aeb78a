package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/branchweb/branchweb-go/pkg/cmap"
)

// LoginThrottle limits login attempts per user name.
//
// A zero rate disables throttling entirely.
type LoginThrottle struct {
	limit    rate.Limit
	burst    int
	limiters *cmap.Map[string, *rate.Limiter]
}

// NewLoginThrottle creates a throttle allowing perSecond attempts per user
// with the given burst.
func NewLoginThrottle(perSecond float64, burst int) *LoginThrottle {
	if burst < 1 {
		burst = 1
	}
	return &LoginThrottle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cmap.New[string, *rate.Limiter](),
	}
}

// Enabled reports whether attempts are limited at all.
func (t *LoginThrottle) Enabled() bool {
	return t != nil && t.limit > 0
}

// Allow consumes one attempt for user and reports whether it may proceed.
func (t *LoginThrottle) Allow(user string) bool {
	if !t.Enabled() {
		return true
	}
	lim, _ := t.limiters.LoadOrStore(user, rate.NewLimiter(t.limit, t.burst))
	return lim.Allow()
}

// Prune drops limiters that have refilled completely. It returns the number dropped.
func (t *LoginThrottle) Prune() int {
	if !t.Enabled() {
		return 0
	}
	n := 0
	for _, user := range t.limiters.Keys() {
		t.limiters.Compute(user, func(lim *rate.Limiter, ok bool) (*rate.Limiter, bool) {
			if !ok {
				return nil, false
			}
			if lim.Tokens() >= float64(t.burst) {
				n++
				return nil, false
			}
			return lim, true
		})
	}
	return n
}

// Len returns the number of tracked users.
func (t *LoginThrottle) Len() int {
	if t == nil {
		return 0
	}
	return t.limiters.Len()
}

// Run prunes idle limiters every interval until ctx is done.
func (t *LoginThrottle) Run(ctx context.Context, interval time.Duration) {
	if !t.Enabled() || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Prune()
		}
	}
}
