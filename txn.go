package watchtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultMaxAttempts bounds the retry loop when TxOptions.MaxAttempts is
	// zero. Under pathological contention an unbounded loop spins forever,
	// so the bound is opt-out rather than opt-in.
	DefaultMaxAttempts = 64

	// UnlimitedAttempts disables the attempt bound: the engine retries until
	// the batch commits, the body aborts, or an error occurs.
	UnlimitedAttempts = -1
)

// State tags the terminal result of a transaction.
type State uint8

const (
	// StateCommitted - the batch was applied atomically.
	StateCommitted State = iota + 1
	// StateAborted - the body ended the transaction early via Abort.
	StateAborted
	// StateFailed - a store, codec, or retry-budget failure ended the loop.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of Run. Exactly one of the three states
// holds; Value/Replies, Abort, and Err are meaningful only in their state.
type Outcome[T, A any] struct {
	State State

	// Value is the body's result from the attempt that committed.
	Value T
	// Replies are the store's per-command results for the committed batch.
	Replies []Reply

	// Abort is the payload handed to Abort by the body.
	Abort A

	// Err is the store, codec, or retry-budget failure.
	Err error
}

func (o Outcome[T, A]) Committed() bool { return o.State == StateCommitted }
func (o Outcome[T, A]) Aborted() bool   { return o.State == StateAborted }
func (o Outcome[T, A]) Failed() bool    { return o.State == StateFailed }

// Body builds one attempt. It may read through conn (consistent with the
// just-established watch) and queue writes on b. Returning nil submits the
// batch; returning Abort(payload) ends the transaction with that payload;
// any other error fails the transaction. The body is re-invoked from scratch
// on every retry, so it must not carry state across attempts.
type Body[T any] func(ctx context.Context, conn Conn, b *Batch) (T, error)

// TxOptions tune the retry loop. The zero value is ready to use.
type TxOptions struct {
	// MaxAttempts bounds the number of attempts; 0 means DefaultMaxAttempts,
	// UnlimitedAttempts removes the bound (the pre-rewrite behavior).
	MaxAttempts int

	// NewBackoff, when set, is called once per transaction and the returned
	// backoff spaces out contended retries. Backoffs are stateful, hence the
	// factory. nil retries immediately.
	NewBackoff func() retry.Backoff

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

// Run executes body as an optimistic transaction over keys with default
// options. See RunWith.
func Run[T, A any](ctx context.Context, conn Conn, keys []string, body Body[T]) Outcome[T, A] {
	return RunWith[T, A](ctx, conn, keys, body, TxOptions{})
}

// RunWith executes body as an optimistic transaction: it watches keys, runs
// body with a fresh batch, submits the batch atomically, and retries the
// whole attempt when the store reports that a watched key changed. Commit
// and abort release the watched keys explicitly; a store failure does not,
// because the connection is presumed unusable and closing it clears the
// watch state (see Conn.Close).
//
// conn must be exclusively owned by this call until it returns.
func RunWith[T, A any](ctx context.Context, conn Conn, keys []string, body Body[T], opts TxOptions) Outcome[T, A] {
	if len(keys) == 0 {
		return failed[T, A](ErrNoWatchKeys)
	}

	log := coalesce[Logger](opts.Logger, NopLogger{})
	hooks := coalesce[Hooks](opts.Hooks, NopHooks{})
	maxAttempts := coalesce[int](opts.MaxAttempts, DefaultMaxAttempts)

	var backoff retry.Backoff
	if opts.NewBackoff != nil {
		backoff = opts.NewBackoff()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return failed[T, A](err)
		}

		if err := conn.Watch(ctx, keys...); err != nil {
			return failed[T, A](fmt.Errorf("watchtx: watch: %w", err))
		}

		b := NewBatch()
		value, err := body(ctx, conn, b)
		if err != nil {
			return settleBodyError[T, A](ctx, conn, keys, hooks, err)
		}

		replies, err := conn.Submit(ctx, b)
		if err == nil {
			if uerr := conn.Unwatch(ctx); uerr != nil {
				return failed[T, A](fmt.Errorf("watchtx: unwatch after commit: %w", uerr))
			}
			hooks.TxCommitted(keys, attempt)
			return Outcome[T, A]{State: StateCommitted, Value: value, Replies: replies}
		}
		if !errors.Is(err, ErrTxFailed) {
			return failed[T, A](fmt.Errorf("watchtx: submit: %w", err))
		}

		// Watched key changed between watch and submit. The store already
		// cleared its watch state for the failed exec; rebuild from scratch.
		hooks.TxRetried(keys, attempt)
		log.Debug("optimistic lock failed; retrying", Fields{"attempt": attempt, "keys": keys})

		if maxAttempts != UnlimitedAttempts && attempt >= maxAttempts {
			hooks.TxExhausted(keys, attempt)
			log.Warn("retry budget exhausted", Fields{"attempts": attempt, "keys": keys})
			return failed[T, A](&RetryLimitError{Attempts: attempt})
		}
		if backoff != nil {
			d, stop := backoff.Next()
			if stop {
				hooks.TxExhausted(keys, attempt)
				return failed[T, A](&RetryLimitError{Attempts: attempt})
			}
			if err := sleep(ctx, d); err != nil {
				return failed[T, A](err)
			}
		}
	}
}

// settleBodyError maps a body error to its terminal outcome. Aborts and
// client-side conditions (absent key, codec failure) leave the connection
// healthy, so they unwatch before returning; store errors do not.
func settleBodyError[T, A any](ctx context.Context, conn Conn, keys []string, hooks Hooks, err error) Outcome[T, A] {
	var abort *AbortError[A]
	if errors.As(err, &abort) {
		if uerr := conn.Unwatch(ctx); uerr != nil {
			return failed[T, A](fmt.Errorf("watchtx: unwatch after abort: %w", uerr))
		}
		hooks.TxAborted(keys)
		return Outcome[T, A]{State: StateAborted, Abort: abort.Payload}
	}

	var encErr *EncodeError
	var decErr *DecodeError
	if errors.Is(err, ErrNotFound) || errors.As(err, &encErr) || errors.As(err, &decErr) {
		if uerr := conn.Unwatch(ctx); uerr != nil {
			return failed[T, A](fmt.Errorf("watchtx: unwatch after failure: %w", uerr))
		}
		return failed[T, A](err)
	}

	// Store-level failure: the connection may hold half-finished protocol
	// state, so no further commands are issued on it.
	return failed[T, A](err)
}

func failed[T, A any](err error) Outcome[T, A] {
	return Outcome[T, A]{State: StateFailed, Err: err}
}

// sleep blocks for d or until ctx is done. A done context fails the
// transaction rather than cutting the delay short.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
