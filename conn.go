package watchtx

import "context"

// Reply carries the store's per-command result for one batch operation,
// positionally matching Batch.Ops.
type Reply struct {
	// Val is the command's result rendered as text, e.g. "OK" for a set or
	// the removed count for a delete.
	Val string
	// Err is the per-command failure, nil when the command succeeded.
	Err error
}

// Conn is a stateful store connection: watch/unwatch state lives on the
// connection itself, so a Conn must be exclusively owned by one in-flight
// transaction. Implementations must map their store's "key absent" signal to
// ok=false (Get) or a nil entry (MGet), never to an error.
type Conn interface {
	// Watch arms the optimistic lock for keys. A later Submit is rejected if
	// any watched key was modified after this call.
	Watch(ctx context.Context, keys ...string) error

	// Unwatch releases every key watched on this connection.
	Unwatch(ctx context.Context) error

	// Get returns (value, true, nil) when key holds a value and
	// (nil, false, nil) when it is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// MGet returns one entry per requested key in order; absent keys map to
	// a nil entry.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// Submit applies the batch atomically and returns one Reply per op.
	// It returns ErrTxFailed (possibly wrapped) when a watched key changed
	// since Watch; the store clears its watch state itself in that case.
	// An empty batch commits trivially without consulting the lock.
	Submit(ctx context.Context, b *Batch) ([]Reply, error)

	// Close releases the connection. Closing also clears any remaining
	// watch state held by the store for this connection.
	Close(ctx context.Context) error
}
