package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestOwnerIndex(t *testing.T) {
	idx := NewOwnerIndex()

	idx.Add("alice", "k1")
	idx.Add("alice", "k2")
	idx.Add("bob", "k3")

	if owner, ok := idx.Owner("k2"); !ok || owner != "alice" {
		t.Errorf("Owner(k2) = (%q, %v), want (alice, true)", owner, ok)
	}
	if got := idx.Keys("alice"); len(got) != 2 || got[0] != "k1" || got[1] != "k2" {
		t.Errorf("Keys(alice) = %v", got)
	}
	if idx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", idx.Len())
	}

	idx.Forget("k1")
	idx.Forget("k2")
	idx.Forget("unknown")

	if _, ok := idx.Owner("k1"); ok {
		t.Error("Owner(k1) should be gone")
	}
	if idx.Keys("alice") != nil {
		t.Error("empty user entry should be dropped")
	}
	if got := idx.Keys("bob"); len(got) != 1 || got[0] != "k3" {
		t.Errorf("Keys(bob) = %v, want [k3]", got)
	}
}

func TestOwnerIndex_WiredToKeyStore(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, time.Minute)
	idx := NewOwnerIndex()
	s.OnRemove(func(id string, _ RemoveReason) { idx.Forget(id) })

	k := s.Issue()
	idx.Add("alice", k.ID)
	s.Revoke(k.ID)

	if _, ok := idx.Owner(k.ID); ok {
		t.Error("revoking the key should drop the back-reference")
	}
}

func TestOwnerIndex_Concurrent(t *testing.T) {
	idx := NewOwnerIndex()

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", u)
			for i := 0; i < 100; i++ {
				idx.Add(user, fmt.Sprintf("%s-k%d", user, i))
			}
			for i := 0; i < 50; i++ {
				idx.Forget(fmt.Sprintf("%s-k%d", user, i))
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		if got := len(idx.Keys(fmt.Sprintf("user%d", u))); got != 50 {
			t.Errorf("user%d count = %d, want 50", u, got)
		}
	}
}

func TestKeySet(t *testing.T) {
	s := NewKeySet()
	s.Add("b")
	s.Add("a")
	s.Add("a")

	if s.Len() != 2 {
		t.Errorf("unexpected set state: %v", s.Items())
	}
	if got := s.Items(); got[0] != "a" || got[1] != "b" {
		t.Errorf("Items() = %v, want sorted", got)
	}
	if n := s.Remove("a"); n != 1 {
		t.Errorf("Remove() remaining = %d, want 1", n)
	}
}
