package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/watchtx"
)

type Options struct {
	// Sampling to avoid floods on hot contended keys; 0/1 = log all.
	RetryEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	retryCtr atomic.Uint64
}

var _ watchtx.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if h.opts.Redact != nil {
			out[i] = h.opts.Redact(k)
			continue
		}
		sum := sha256.Sum256([]byte(k))
		out[i] = hex.EncodeToString(sum[:8])
	}
	return out
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) TxRetried(keys []string, attempt int) {
	if h.l == nil || !sample(h.opts.RetryEvery, &h.retryCtr) {
		return
	}
	h.l.Debug("watchtx.tx_retried",
		"keys", h.redact(keys),
		"attempt", attempt)
}

func (h *Hooks) TxExhausted(keys []string, attempts int) {
	if h.l == nil {
		return
	}
	h.l.Warn("watchtx.tx_exhausted",
		"keys", h.redact(keys),
		"attempts", attempts)
}

func (h *Hooks) TxAborted(keys []string) {
	if h.l == nil {
		return
	}
	h.l.Info("watchtx.tx_aborted",
		"keys", h.redact(keys))
}

func (h *Hooks) TxCommitted(keys []string, attempts int) {
	if h.l == nil || attempts == 1 {
		// first-attempt commits are the boring common case
		return
	}
	h.l.Info("watchtx.tx_committed_after_contention",
		"keys", h.redact(keys),
		"attempts", attempts)
}
