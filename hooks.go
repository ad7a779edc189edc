package watchtx

// Hooks lightweight callbacks for high-signal transaction events.
// Implementations MUST be cheap and non-blocking - the engine calls them
// inline on the retry path. Wrap with hooks/async to offload slow sinks.
type Hooks interface {
	// Submit was rejected because a watched key changed; the attempt number
	// that failed is given and the engine will retry.
	TxRetried(keys []string, attempt int)

	// The retry budget ran out without a commit.
	TxExhausted(keys []string, attempts int)

	// The body aborted the transaction.
	TxAborted(keys []string)

	// The batch committed. attempts includes the successful attempt.
	TxCommitted(keys []string, attempts int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) TxRetried([]string, int)   {}
func (NopHooks) TxExhausted([]string, int) {}
func (NopHooks) TxAborted([]string)        {}
func (NopHooks) TxCommitted([]string, int) {}
