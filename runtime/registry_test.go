package runtime

import (
	"direct-chat/contract"
	"direct-chat/domain"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_Then_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	handle := newFakeHandle()

	// Given no user is connected
	_, ok := registry.Lookup("alice")
	req.False(ok)
	req.Empty(registry.SnapshotUserIDs())

	// When a user registers
	registry.Register("alice", handle)

	// Then the handle is found
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(handle, found)
	req.Equal([]domain.UserID{"alice"}, registry.SnapshotUserIDs())
}

func TestRegistry_Register_Replaces_Without_Closing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newFakeHandle()
	second := newFakeHandle()

	registry.Register("alice", first)
	registry.Register("alice", second)

	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, found)
	_, handles := registry.Snapshot()
	req.Len(handles, 1)
	req.False(first.Closed())
}

func TestRegistry_Stale_Unregister_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := newFakeHandle()
	second := newFakeHandle()

	// Given alice reconnected before her first disconnect was processed
	registry.Register("alice", first)
	registry.Register("alice", second)

	// When the stale disconnect arrives
	removed := registry.Unregister("alice", first)

	// Then the newer connection stays registered
	req.False(removed)
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, found)

	// And the current one can still leave
	req.True(registry.Unregister("alice", second))
	_, ok = registry.Lookup("alice")
	req.False(ok)
}

func TestRegistry_Unregister_Compares_Handles_Not_IDs(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &fakeHandle{id: "same-label"}
	second := &fakeHandle{id: "same-label"}

	// Given two distinct connections sharing the same label
	registry.Register("alice", first)
	registry.Register("alice", second)

	// When the older one disconnects
	removed := registry.Unregister("alice", first)

	// Then the newer connection is kept
	req.False(removed)
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, found)
}

func TestRegistry_Snapshot_Pairs_Users_With_Their_Handles(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice, bob := newFakeHandle(), newFakeHandle()
	registry.Register("alice", alice)
	registry.Register("bob", bob)

	userIDs, handles := registry.Snapshot()

	req.Equal([]domain.UserID{"alice", "bob"}, userIDs)
	req.ElementsMatch([]*fakeHandle{alice, bob}, lo.Map(handles, func(h contract.ConnectionHandle, _ int) *fakeHandle {
		return h.(*fakeHandle)
	}))
}

func TestRegistry_Unregister_Unknown_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.False(registry.Unregister("ghost", newFakeHandle()))
}

func TestRegistry_Snapshot_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", newFakeHandle())
	registry.Register("bob", newFakeHandle())

	snapshot, handles := registry.Snapshot()
	registry.Register("clara", newFakeHandle())

	req.Equal([]domain.UserID{"alice", "bob"}, snapshot)
	req.Len(handles, 2)
	req.Equal([]domain.UserID{"alice", "bob", "clara"}, registry.SnapshotUserIDs())
}

func TestRegistry_Snapshot_Matches_Last_Event_Per_User(t *testing.T) {
	req := require.New(t)
	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		registry := NewRegistry()
		handles := make(map[domain.UserID]*fakeHandle)
		lastConnected := make(map[domain.UserID]bool)

		for step := 0; step < 200; step++ {
			userID := domain.UserID(fmt.Sprintf("user-%d", rnd.Intn(10)))
			if rnd.Intn(2) == 0 {
				handle := newFakeHandle()
				handles[userID] = handle
				registry.Register(userID, handle)
				lastConnected[userID] = true
				continue
			}
			if handle, ok := handles[userID]; ok {
				registry.Unregister(userID, handle)
			}
			lastConnected[userID] = false
		}

		expected := lo.Keys(lo.PickBy(lastConnected, func(_ domain.UserID, connected bool) bool {
			return connected
		}))
		req.ElementsMatch(expected, registry.SnapshotUserIDs(), "round %d", round)
	}
}

func TestRegistry_Concurrent_Access(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := domain.UserID(fmt.Sprintf("user-%d", i))
			handle := newFakeHandle()
			for j := 0; j < 100; j++ {
				registry.Register(userID, handle)
				registry.Lookup(userID)
				registry.SnapshotUserIDs()
				registry.Snapshot()
				registry.Unregister(userID, handle)
			}
			registry.Register(userID, handle)
		}(i)
	}
	wg.Wait()

	req.Len(registry.SnapshotUserIDs(), 20)
}
