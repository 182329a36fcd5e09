package runtime

import (
	"context"
	"direct-chat/domain/event"
	"direct-chat/errors"
	"sync"

	"github.com/google/uuid"
)

// fakeHandle records pushed events in memory.
type fakeHandle struct {
	id      string
	mu      sync.Mutex
	events  []event.Event
	closed  bool
	pushErr error
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{id: uuid.NewString()}
}

func newBrokenHandle() *fakeHandle {
	return &fakeHandle{id: uuid.NewString(), pushErr: errors.ErrHandleClosed}
}

func (h *fakeHandle) ID() string { return h.id }

func (h *fakeHandle) Push(_ context.Context, e event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pushErr != nil {
		return h.pushErr
	}
	h.events = append(h.events, e)
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) Events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]event.Event(nil), h.events...)
}

func (h *fakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
