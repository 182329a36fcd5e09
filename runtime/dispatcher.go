package runtime

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"log/slog"
	"time"
)

// Dispatcher makes one realtime delivery attempt for a persisted message.
// Durability belongs to the store: an offline receiver reads the message
// from history on its next fetch.
type Dispatcher struct {
	log         *slog.Logger
	registry    contract.IRegistry
	pushTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry, pushTimeout time.Duration) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, pushTimeout: pushTimeout}
}

// Dispatch must only be called once the store acknowledged the write.
// It never retries, queues or reports the outcome to the sender.
func (d *Dispatcher) Dispatch(ctx context.Context, message domain.Message) {
	handle, ok := d.registry.Lookup(message.ReceiverID)
	if !ok {
		d.log.Debug("Receiver offline, message left in history",
			"message_id", message.ID, "receiver_id", message.ReceiverID)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("Message push panicked",
				"message_id", message.ID, "receiver_id", message.ReceiverID,
				"handle_id", handle.ID(), "panic", r)
		}
	}()

	pushCtx, cancel := withOptionalTimeout(ctx, d.pushTimeout)
	defer cancel()

	if err := handle.Push(pushCtx, event.NewMessage{Message: message}); err != nil {
		d.log.Debug("Message push failed",
			"message_id", message.ID, "receiver_id", message.ReceiverID,
			"handle_id", handle.ID(), "error", err)
		return
	}
	d.log.Debug("Message pushed", "message_id", message.ID, "receiver_id", message.ReceiverID)
}
