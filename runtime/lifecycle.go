package runtime

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"log/slog"
)

// Lifecycle bridges transport connect and disconnect events to the registry
// and triggers a presence broadcast after each of them.
//
// Two connections racing for the same user resolve as last writer wins.
// The loser stays open, unregistered, until it disconnects by itself,
// unless evictReplaced is set.
type Lifecycle struct {
	log           *slog.Logger
	registry      contract.IRegistry
	broadcaster   contract.IBroadcaster
	identity      contract.IdentityExtractor
	evictReplaced bool
}

func NewLifecycle(log *slog.Logger, registry contract.IRegistry, broadcaster contract.IBroadcaster,
	identity contract.IdentityExtractor, evictReplaced bool) *Lifecycle {
	return &Lifecycle{
		log:           log,
		registry:      registry,
		broadcaster:   broadcaster,
		identity:      identity,
		evictReplaced: evictReplaced,
	}
}

// OnConnect moves a connection from CONNECTING to OPEN, or straight to CLOSED
// when the handshake carries no usable identity.
func (l *Lifecycle) OnConnect(ctx context.Context, handshake contract.Handshake,
	handle contract.ConnectionHandle) (domain.UserID, error) {
	userID, err := l.identity.Extract(handshake)
	if err != nil || userID == "" {
		l.log.Warn("Rejecting unidentified connection", "handle_id", handle.ID(), "error", err)
		if closeErr := handle.Close(); closeErr != nil {
			l.log.Debug("Closing rejected connection failed", "handle_id", handle.ID(), "error", closeErr)
		}
		if err == nil {
			return "", errors.ErrUnidentifiedConnection
		}
		return "", fmt.Errorf("%w: %v", errors.ErrUnidentifiedConnection, err)
	}

	previous, replaced := l.registry.Lookup(userID)
	l.registry.Register(userID, handle)
	l.log.Info("User connected", "user_id", userID, "handle_id", handle.ID())

	if replaced && l.evictReplaced && previous != handle {
		l.log.Info("Closing replaced connection", "user_id", userID, "handle_id", previous.ID())
		if err := previous.Close(); err != nil {
			l.log.Debug("Closing replaced connection failed", "handle_id", previous.ID(), "error", err)
		}
	}

	l.broadcaster.BroadcastPresence(ctx)
	return userID, nil
}

// OnDisconnect always broadcasts, even when the handle was already replaced.
func (l *Lifecycle) OnDisconnect(ctx context.Context, userID domain.UserID, handle contract.ConnectionHandle) {
	if removed := l.registry.Unregister(userID, handle); removed {
		l.log.Info("User disconnected", "user_id", userID, "handle_id", handle.ID())
	} else {
		l.log.Debug("Stale disconnect ignored", "user_id", userID, "handle_id", handle.ID())
	}
	l.broadcaster.BroadcastPresence(ctx)
}
