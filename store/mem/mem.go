// Package mem implements watchtx.Conn against an in-process store with real
// watch semantics. Every write bumps a per-key version; Submit compares the
// versions recorded at Watch time against the current ones and rejects the
// batch when any watched key moved. Intended for tests and single-process
// tooling, not as a durable store.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/watchtx"
)

type entry struct {
	val []byte
	exp time.Time // zero => no TTL
}

// Store is the shared keyspace. Multiple Conns may be opened against one
// Store; each Conn tracks its own watch set, like connections to one server.
type Store struct {
	mu       sync.Mutex
	data     map[string]entry
	versions map[string]uint64 // survives deletes so re-creation still trips watches
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		data:     make(map[string]entry),
		versions: make(map[string]uint64),
	}
}

// Conn opens a connection view over the store.
func (s *Store) Conn() *Conn {
	return &Conn{store: s, watched: make(map[string]uint64)}
}

// Put writes raw under key outside any transaction, bumping the key's
// version. Tests use it to act as the concurrent writer. ttl <= 0 stores
// without expiry.
func (s *Store) Put(key string, raw []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, raw, ttl)
}

// Delete removes key outside any transaction, bumping its version.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.del(key)
}

// Value returns the live bytes at key, if any.
func (s *Store) Value(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

// locked
func (s *Store) put(key string, raw []byte, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.data[key] = entry{val: raw, exp: exp}
	s.versions[key]++
}

// locked
func (s *Store) del(key string) {
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.versions[key]++
	}
}

// locked; expires lazily
func (s *Store) get(key string) ([]byte, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(s.data, key)
		s.versions[key]++
		return nil, false
	}
	return e.val, true
}

// Conn is one connection's view of a Store: reads, plus the watch set that
// guards Submit. Not safe for concurrent use, matching the contract of
// watchtx.Conn.
type Conn struct {
	store   *Store
	watched map[string]uint64
}

var _ watchtx.Conn = (*Conn)(nil)

func (c *Conn) Watch(_ context.Context, keys ...string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, k := range keys {
		// reading refreshes expiry state so the recorded version is current
		_, _ = c.store.get(k)
		c.watched[k] = c.store.versions[k]
	}
	return nil
}

func (c *Conn) Unwatch(context.Context) error {
	clear(c.watched)
	return nil
}

func (c *Conn) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	v, ok := c.store.get(key)
	return v, ok, nil
}

func (c *Conn) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := c.store.get(k); ok {
			out[i] = v
		}
	}
	return out, nil
}

// Submit checks every watched key's version against the value recorded at
// Watch time and applies the batch only if none moved. The watch set is
// consumed either way, mirroring EXEC semantics.
func (c *Conn) Submit(_ context.Context, b *watchtx.Batch) ([]watchtx.Reply, error) {
	if b.Len() == 0 {
		clear(c.watched)
		return nil, nil
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for k, seen := range c.watched {
		_, _ = c.store.get(k) // lazily expire before comparing
		if c.store.versions[k] != seen {
			clear(c.watched)
			return nil, watchtx.ErrTxFailed
		}
	}
	clear(c.watched)

	replies := make([]watchtx.Reply, 0, b.Len())
	for _, op := range b.Ops() {
		switch op.Kind {
		case watchtx.OpSet:
			c.store.put(op.Key, op.Value, op.TTL)
			replies = append(replies, watchtx.Reply{Val: "OK"})
		case watchtx.OpDel:
			removed := "0"
			if _, ok := c.store.get(op.Key); ok {
				removed = "1"
			}
			c.store.del(op.Key)
			replies = append(replies, watchtx.Reply{Val: removed})
		}
	}
	return replies, nil
}

func (c *Conn) Close(context.Context) error {
	clear(c.watched)
	return nil
}
