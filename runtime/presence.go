package runtime

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain/event"
	"log/slog"
	"time"
)

// PresenceBroadcaster pushes the full online set to every registered handle.
//
// It provides best-effort delivery with no guarantees regarding ordering or retries.
// A failing recipient is skipped, the others still receive the update.
type PresenceBroadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	pushTimeout time.Duration
}

func NewPresenceBroadcaster(log *slog.Logger, registry contract.IRegistry, pushTimeout time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, registry: registry, pushTimeout: pushTimeout}
}

// BroadcastPresence runs synchronously, once per lifecycle event.
// Bursts of connects and disconnects are not coalesced.
func (b *PresenceBroadcaster) BroadcastPresence(ctx context.Context) {
	userIDs, handles := b.registry.Snapshot()
	update := event.PresenceUpdate{UserIDs: userIDs}

	for _, handle := range handles {
		b.push(ctx, handle, update)
	}
	b.log.Debug("Presence broadcast", "online", len(userIDs), "recipients", len(handles))
}

func (b *PresenceBroadcaster) push(ctx context.Context, handle contract.ConnectionHandle, update event.PresenceUpdate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("Presence push panicked", "handle_id", handle.ID(), "panic", r)
		}
	}()

	pushCtx, cancel := withOptionalTimeout(ctx, b.pushTimeout)
	defer cancel()

	if err := handle.Push(pushCtx, update); err != nil {
		b.log.Debug("Presence push failed", "handle_id", handle.ID(), "error", err)
	}
}

// withOptionalTimeout bounds a push when a timeout is configured.
func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
