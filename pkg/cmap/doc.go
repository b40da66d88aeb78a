// Package cmap provides a sharded concurrent map keyed by strings.
//
// Each shard has its own RWMutex, so unrelated keys rarely contend.
// It backs the per-user indexes (key ownership, login limiters) that are
// read and written from every connection goroutine.
//
// Usage:
//
//	m := cmap.New[string, *rate.Limiter]()
//	lim, _ := m.LoadOrStore("alice", rate.NewLimiter(1, 5))
//	m.Compute("alice", func(v *rate.Limiter, ok bool) (*rate.Limiter, bool) { ... })
package cmap
