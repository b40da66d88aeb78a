package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
	"github.com/branchweb/branchweb-go/pkg/token"
)

// maxIssueAttempts bounds ID regeneration on collision.
const maxIssueAttempts = 8

// RemoveReason says why a key left the store.
type RemoveReason int

const (
	// RemovedRevoked means the key was revoked explicitly (logoff).
	RemovedRevoked RemoveReason = iota + 1
	// RemovedExpired means the key was idle past the timeout.
	RemovedExpired
)

// String returns the reason name used in logs.
func (r RemoveReason) String() string {
	switch r {
	case RemovedRevoked:
		return "revoked"
	case RemovedExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RemoveFunc observes key removals. It is called without the store lock held.
type RemoveFunc func(id string, reason RemoveReason)

// KeyStore is the single authoritative set of outstanding session keys.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]*domain.SessionKey

	timeout atomic.Int64 // time.Duration

	now     func() time.Time
	newID   func() string
	metrics *metric.Registry
	logger  *slog.Logger

	observers []RemoveFunc
}

// KeyStoreOption configures a KeyStore.
type KeyStoreOption func(*KeyStore)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) KeyStoreOption {
	return func(s *KeyStore) {
		s.now = now
	}
}

// WithTimeout sets the initial idle timeout.
func WithTimeout(d time.Duration) KeyStoreOption {
	return func(s *KeyStore) {
		s.timeout.Store(int64(d))
	}
}

// WithIDGenerator overrides key ID generation.
func WithIDGenerator(gen func() string) KeyStoreOption {
	return func(s *KeyStore) {
		s.newID = gen
	}
}

// WithMetrics records key metrics into reg.
func WithMetrics(reg *metric.Registry) KeyStoreOption {
	return func(s *KeyStore) {
		s.metrics = reg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) KeyStoreOption {
	return func(s *KeyStore) {
		s.logger = l
	}
}

// NewKeyStore creates an empty key store.
func NewKeyStore(opts ...KeyStoreOption) *KeyStore {
	s := &KeyStore{
		keys:   make(map[string]*domain.SessionKey),
		now:    time.Now,
		newID:  domain.NewKeyID,
		logger: slog.Default(),
	}
	s.timeout.Store(int64(domain.DefaultKeyTimeout))

	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metric.NewRegistry()
	}
	return s
}

// OnRemove registers an observer for key removals.
// Observers must be registered before the store is shared.
func (s *KeyStore) OnRemove(fn RemoveFunc) {
	s.observers = append(s.observers, fn)
}

// Timeout returns the current idle timeout.
func (s *KeyStore) Timeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

// SetTimeout changes the idle timeout. Non-positive values are ignored.
func (s *KeyStore) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.timeout.Store(int64(d))
}

// Issue creates, stores and returns a new key stamped now.
func (s *KeyStore) Issue() domain.SessionKey {
	s.mu.Lock()
	now := s.now()
	gen := s.newID
	id := gen()
	for attempt := 1; s.has(id); attempt++ {
		if attempt >= maxIssueAttempts {
			gen = domain.NewKeyID
		}
		id = gen()
	}
	k := &domain.SessionKey{ID: id, LastSeen: now}
	s.keys[id] = k
	s.setActiveLocked()
	s.mu.Unlock()

	s.metrics.KeysIssued.Inc()
	s.logger.Debug("key issued", "key_fp", token.Fingerprint(id))
	return *k
}

// Validate reports whether id names a live key, refreshing it if so.
//
// Expired keys are swept first. An absent or expired key yields false;
// the two cases are indistinguishable.
func (s *KeyStore) Validate(id string) bool {
	s.mu.Lock()
	now := s.now()
	timeout := s.Timeout()
	expired := s.sweepLocked(now, timeout)

	k, ok := s.keys[id]
	if ok && k.Expired(now, timeout) {
		// Unreachable after the sweep unless the clock moved backwards mid-call.
		delete(s.keys, id)
		expired = append(expired, id)
		ok = false
	}
	if ok {
		k.Refresh(now)
	}
	s.setActiveLocked()
	s.mu.Unlock()

	s.afterRemove(expired, RemovedExpired)
	if !ok {
		s.logger.Debug("key validation failed", "key_fp", token.Fingerprint(id))
	}
	return ok
}

// Revoke removes id and reports whether it was present.
func (s *KeyStore) Revoke(id string) bool {
	s.mu.Lock()
	_, ok := s.keys[id]
	if ok {
		delete(s.keys, id)
	}
	s.setActiveLocked()
	s.mu.Unlock()

	if ok {
		s.afterRemove([]string{id}, RemovedRevoked)
		s.logger.Debug("key revoked", "key_fp", token.Fingerprint(id))
	}
	return ok
}

// SweepExpired removes every key idle for longer than timeout at now.
// It returns the number removed.
func (s *KeyStore) SweepExpired(now time.Time, timeout time.Duration) int {
	s.mu.Lock()
	expired := s.sweepLocked(now, timeout)
	s.setActiveLocked()
	s.mu.Unlock()

	s.afterRemove(expired, RemovedExpired)
	return len(expired)
}

// Sweep runs SweepExpired with the store's clock and timeout.
func (s *KeyStore) Sweep() int {
	return s.SweepExpired(s.now(), s.Timeout())
}

// Get returns a copy of the key without refreshing it.
func (s *KeyStore) Get(id string) (domain.SessionKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return domain.SessionKey{}, false
	}
	return *k, true
}

// Lookup returns copies of the live keys among ids, oldest activity first.
// Unknown IDs are skipped.
func (s *KeyStore) Lookup(ids []string) []domain.SessionKey {
	s.mu.Lock()
	out := make([]domain.SessionKey, 0, len(ids))
	for _, id := range ids {
		if k, ok := s.keys[id]; ok {
			out = append(out, *k)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastSeen.Before(out[j].LastSeen)
	})
	return out
}

// Len returns the number of keys currently held, expired or not.
func (s *KeyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Run sweeps expired keys every interval until ctx is done.
// A non-positive interval returns immediately.
func (s *KeyStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("janitor cleared expired keys", "count", n)
			}
		}
	}
}

func (s *KeyStore) has(id string) bool {
	_, ok := s.keys[id]
	return ok
}

// sweepLocked deletes expired keys and returns their IDs. Caller holds mu.
func (s *KeyStore) sweepLocked(now time.Time, timeout time.Duration) []string {
	var expired []string
	for id, k := range s.keys {
		if k.Expired(now, timeout) {
			delete(s.keys, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// setActiveLocked publishes the key count. Caller holds mu, so the gauge
// follows the order of mutations.
func (s *KeyStore) setActiveLocked() {
	s.metrics.KeysActive.Set(float64(len(s.keys)))
}

func (s *KeyStore) afterRemove(ids []string, reason RemoveReason) {
	if len(ids) == 0 {
		return
	}
	switch reason {
	case RemovedExpired:
		s.metrics.KeysExpired.Add(float64(len(ids)))
		s.logger.Debug("cleared dead keys", "count", len(ids))
	case RemovedRevoked:
		s.metrics.KeysRevoked.Add(float64(len(ids)))
	}
	for _, id := range ids {
		for _, fn := range s.observers {
			fn(id, reason)
		}
	}
}
