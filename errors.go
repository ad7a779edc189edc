package watchtx

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a requested key is absent. Distinguished from
	// DecodeError so callers can branch on "missing" vs "corrupt".
	ErrNotFound = errors.New("watchtx: key not found")

	// ErrTxFailed is returned by Conn.Submit when the store rejected the
	// batch because a watched key changed after Watch. The engine never
	// surfaces it to callers; it triggers a retry instead.
	ErrTxFailed = errors.New("watchtx: transaction failed (watched key changed)")

	// ErrNoWatchKeys is returned when Run is invoked with an empty key set.
	// An empty watch set would submit unguarded.
	ErrNoWatchKeys = errors.New("watchtx: transaction requires at least one watched key")
)

// EncodeError wraps a codec failure while serializing a value for key Key.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("watchtx: encode value for %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError wraps a codec failure while deserializing the value stored at
// key Key.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("watchtx: decode value at %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RetryLimitError reports that the retry budget was exhausted before the
// batch committed. Attempts is the number of attempts actually made.
type RetryLimitError struct {
	Attempts int
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("watchtx: gave up after %d contended attempts", e.Attempts)
}

// AbortError carries a caller-supplied payload out of a transaction body.
// Construct it with Abort. The payload type must match the A parameter of
// the enclosing Run, otherwise the abort is treated as a plain failure.
type AbortError[A any] struct {
	Payload A
}

func (e *AbortError[A]) Error() string {
	return fmt.Sprintf("watchtx: transaction aborted: %v", e.Payload)
}

// Abort returns an error that stops the transaction without retrying and
// surfaces payload as Outcome.Abort. The watched keys are released before
// the engine returns.
func Abort[A any](payload A) error {
	return &AbortError[A]{Payload: payload}
}
