package core

import (
	"sync"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	c := NewClient("c1")
	if displaced := reg.Register(42, c); displaced != nil {
		t.Fatalf("expected no displaced client, got %v", displaced.ID)
	}

	got, ok := reg.Lookup(42)
	if !ok || got != c {
		t.Fatalf("lookup(42) = %v, %v; want registered client", got, ok)
	}

	if _, ok := reg.Lookup(7); ok {
		t.Fatalf("lookup(7) should be absent")
	}
}

func TestRegistryLastConnectionWins(t *testing.T) {
	reg := NewRegistry()

	first := NewClient("first")
	second := NewClient("second")

	reg.Register(7, first)
	displaced := reg.Register(7, second)
	if displaced != first {
		t.Fatalf("expected first client displaced, got %+v", displaced)
	}

	got, ok := reg.Lookup(7)
	if !ok || got != second {
		t.Fatalf("lookup(7) should return the second client")
	}

	// The stale connection closing late must not evict the newer one.
	if reg.Unregister(7, first) {
		t.Fatalf("unregister with stale handle should be a no-op")
	}
	if got, ok := reg.Lookup(7); !ok || got != second {
		t.Fatalf("second client should still be registered")
	}

	if !reg.Unregister(7, second) {
		t.Fatalf("unregister with current handle should succeed")
	}
	if _, ok := reg.Lookup(7); ok {
		t.Fatalf("entry should be gone after unregister")
	}
}

func TestRegistryReregisterSameClient(t *testing.T) {
	reg := NewRegistry()
	c := NewClient("c1")

	reg.Register(1, c)
	if displaced := reg.Register(1, c); displaced != nil {
		t.Fatalf("re-registering the same client must not displace itself")
	}
}

func TestRegistryOnlineUsers(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, NewClient("a"))
	reg.Register(2, NewClient("b"))

	ids := reg.OnlineUsers()
	if len(ids) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(ids))
	}
	if !reg.Online(1) || !reg.Online(2) || reg.Online(3) {
		t.Fatalf("unexpected online flags")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			c := NewClient("c")
			reg.Register(userID%8, c)
			reg.Lookup(userID % 8)
			reg.Unregister(userID%8, c)
			reg.OnlineUsers()
		}(int64(i))
	}
	wg.Wait()

	// At most one handle per user can survive.
	if n := len(reg.OnlineUsers()); n > 8 {
		t.Fatalf("registry holds %d entries for 8 users", n)
	}
}
