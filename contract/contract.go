//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ConnectionHandle is a live push channel to exactly one connected client.
// Only the transport handler that created it may close it.
// ConnectionHandle is compared by identity: two handles are the same only
// when they are the same value. ID is a label for logs.
type ConnectionHandle interface {
	ID() string
	Push(ctx context.Context, e event.Event) error
	Close() error
}

// Handshake exposes the metadata a client sent when opening its connection
// (query parameters first, then headers).
type Handshake interface {
	Get(key string) string
}

// IdentityExtractor resolves the user claimed by a handshake.
type IdentityExtractor interface {
	Extract(h Handshake) (domain.UserID, error)
}

type IRegistry interface {
	Register(userID domain.UserID, handle ConnectionHandle)
	Unregister(userID domain.UserID, handle ConnectionHandle) bool
	Lookup(userID domain.UserID) (ConnectionHandle, bool)
	SnapshotUserIDs() []domain.UserID
	Snapshot() ([]domain.UserID, []ConnectionHandle)
}

type IBroadcaster interface {
	BroadcastPresence(ctx context.Context)
}

type IDispatcher interface {
	Dispatch(ctx context.Context, message domain.Message)
}

type ILifecycle interface {
	OnConnect(ctx context.Context, handshake Handshake, handle ConnectionHandle) (domain.UserID, error)
	OnDisconnect(ctx context.Context, userID domain.UserID, handle ConnectionHandle)
}
