package runtime

import (
	"direct-chat/contract"
	"direct-chat/domain"
	"slices"
	"sync"
)

// Registry maps each online user to its single live connection handle.
// Every access goes through its methods; the underlying map never escapes.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]contract.ConnectionHandle // map user -> handle
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.UserID]contract.ConnectionHandle),
	}
}

// Register inserts or replaces the handle of a user.
// A replaced handle is left open: closing belongs to whoever owns the connection.
func (r *Registry) Register(userID domain.UserID, handle contract.ConnectionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[userID] = handle
}

// Unregister removes the entry of a user only if it still points to handle.
// A disconnect arriving after a fast reconnect must not evict the newer connection.
func (r *Registry) Unregister(userID domain.UserID, handle contract.ConnectionHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != handle {
		return false
	}
	delete(r.sessions, userID)
	return true
}

func (r *Registry) Lookup(userID domain.UserID) (contract.ConnectionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.sessions[userID]
	return handle, ok
}

// SnapshotUserIDs returns a sorted copy of the online users.
func (r *Registry) SnapshotUserIDs() []domain.UserID {
	r.mu.RLock()
	ids := make([]domain.UserID, 0, len(r.sessions))
	for userID := range r.sessions {
		ids = append(ids, userID)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Snapshot returns the online users and their handles, both copied under
// the same read lock so they describe the same instant.
func (r *Registry) Snapshot() ([]domain.UserID, []contract.ConnectionHandle) {
	r.mu.RLock()
	ids := make([]domain.UserID, 0, len(r.sessions))
	handles := make([]contract.ConnectionHandle, 0, len(r.sessions))
	for userID, handle := range r.sessions {
		ids = append(ids, userID)
		handles = append(handles, handle)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids, handles
}
