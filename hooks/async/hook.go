// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/watchtx"
//	"github.com/unkn0wn-root/watchtx/hooks/async"
//	"github.com/unkn0wn-root/watchtx/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    RetryEvery: 10, // sample logs: ~every 10th retry
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	out := watchtx.RunWith[int, string](ctx, conn, keys, body, watchtx.TxOptions{
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/watchtx"
)

type Hooks struct {
	inner watchtx.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ watchtx.Hooks = (*Hooks)(nil)

func New(inner watchtx.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) TxRetried(keys []string, attempt int) {
	h.try(func() { h.inner.TxRetried(keys, attempt) })
}
func (h *Hooks) TxExhausted(keys []string, attempts int) {
	h.try(func() { h.inner.TxExhausted(keys, attempts) })
}
func (h *Hooks) TxAborted(keys []string) { h.try(func() { h.inner.TxAborted(keys) }) }
func (h *Hooks) TxCommitted(keys []string, attempts int) {
	h.try(func() { h.inner.TxCommitted(keys, attempts) })
}
