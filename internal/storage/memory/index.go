package memory

import (
	"sort"
	"sync"

	"github.com/branchweb/branchweb-go/pkg/cmap"
)

// KeySet is a concurrent-safe set of key IDs.
type KeySet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewKeySet creates a new key set.
func NewKeySet() *KeySet {
	return &KeySet{
		items: make(map[string]struct{}),
	}
}

// Add adds a key ID to the set.
func (s *KeySet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

// Remove removes a key ID and returns the remaining size.
func (s *KeySet) Remove(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return len(s.items)
}

// Len returns the number of items in the set.
func (s *KeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns the key IDs in sorted order.
func (s *KeySet) Items() []string {
	s.mu.RLock()
	items := make([]string, 0, len(s.items))
	for id := range s.items {
		items = append(items, id)
	}
	s.mu.RUnlock()

	sort.Strings(items)
	return items
}

// OwnerIndex records which user each key was issued to.
//
// It holds back-references only. The KeyStore decides whether a key is
// alive; Forget is wired to its removal observer.
type OwnerIndex struct {
	byUser *cmap.Map[string, *KeySet]
	byKey  *cmap.Map[string, string]
}

// NewOwnerIndex creates an empty owner index.
func NewOwnerIndex() *OwnerIndex {
	return &OwnerIndex{
		byUser: cmap.New[string, *KeySet](),
		byKey:  cmap.New[string, string](),
	}
}

// Add records that keyID belongs to user.
func (i *OwnerIndex) Add(user, keyID string) {
	i.byKey.Set(keyID, user)
	i.byUser.Compute(user, func(set *KeySet, ok bool) (*KeySet, bool) {
		if !ok {
			set = NewKeySet()
		}
		set.Add(keyID)
		return set, true
	})
}

// Forget drops keyID from the index.
func (i *OwnerIndex) Forget(keyID string) {
	user, ok := i.byKey.Pop(keyID)
	if !ok {
		return
	}
	i.byUser.Compute(user, func(set *KeySet, ok bool) (*KeySet, bool) {
		if !ok {
			return nil, false
		}
		return set, set.Remove(keyID) > 0
	})
}

// Owner returns the user keyID was issued to.
func (i *OwnerIndex) Owner(keyID string) (string, bool) {
	return i.byKey.Get(keyID)
}

// Keys returns the key IDs recorded for user.
func (i *OwnerIndex) Keys(user string) []string {
	set, ok := i.byUser.Get(user)
	if !ok {
		return nil
	}
	return set.Items()
}

// Len returns the number of indexed keys.
func (i *OwnerIndex) Len() int {
	return i.byKey.Len()
}
