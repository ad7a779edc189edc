package watchtx

import "time"

// OpKind identifies one write operation inside a Batch.
type OpKind uint8

const (
	OpSet OpKind = iota + 1
	OpDel
)

// Op is a single queued write. Value and TTL are meaningful for OpSet only;
// TTL == 0 stores without expiry.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
	TTL   time.Duration
}

// Batch is an ordered sequence of write operations submitted atomically.
// A Batch is attempt-scoped: the engine hands the body a fresh empty Batch on
// every attempt and discards it afterwards, so operations computed against
// outdated reads never leak into a retry.
//
// Batch methods return the receiver for chaining and are not safe for
// concurrent use.
type Batch struct {
	ops []Op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Set queues a plain write of raw under key.
func (b *Batch) Set(key string, raw []byte) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSet, Key: key, Value: raw})
	return b
}

// SetTTL queues a write of raw under key that expires after ttl.
// Non-positive ttl stores without expiry.
func (b *Batch) SetTTL(key string, raw []byte, ttl time.Duration) *Batch {
	if ttl < 0 {
		ttl = 0
	}
	b.ops = append(b.ops, Op{Kind: OpSet, Key: key, Value: raw, TTL: ttl})
	return b
}

// Del queues deletions, one op per key.
func (b *Batch) Del(keys ...string) *Batch {
	for _, k := range keys {
		b.ops = append(b.ops, Op{Kind: OpDel, Key: k})
	}
	return b
}

// Len reports the number of queued operations.
func (b *Batch) Len() int { return len(b.ops) }

// Ops exposes the queued operations in submission order. The slice is owned
// by the batch; callers must not mutate it.
func (b *Batch) Ops() []Op { return b.ops }
