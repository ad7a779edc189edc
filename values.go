package watchtx

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/watchtx/codec"
)

// ReadOne fetches the raw bytes at key and decodes them with cd.
// Absent key => wrapped ErrNotFound; undecodable value => *DecodeError;
// anything else is a store failure.
func ReadOne[V any](ctx context.Context, conn Conn, cd codec.Codec[V], key string) (V, error) {
	var zero V
	raw, ok, err := conn.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("watchtx: get %q: %w", key, err)
	}
	if !ok {
		return zero, fmt.Errorf("watchtx: get %q: %w", key, ErrNotFound)
	}
	v, err := cd.Decode(raw)
	if err != nil {
		return zero, &DecodeError{Key: key, Err: err}
	}
	return v, nil
}

// ReadOptional is ReadOne with absence reported as ok=false instead of an
// error.
func ReadOptional[V any](ctx context.Context, conn Conn, cd codec.Codec[V], key string) (V, bool, error) {
	var zero V
	raw, ok, err := conn.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("watchtx: get %q: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := cd.Decode(raw)
	if err != nil {
		return zero, false, &DecodeError{Key: key, Err: err}
	}
	return v, true, nil
}

// ReadMany fetches keys in one multi-get and decodes each value positionally.
// Absence semantics are uniform across arities: ANY absent key - including a
// single requested key - fails the whole call with a wrapped ErrNotFound
// naming that key. Callers that want per-key optionality should use
// ReadOptional per key.
func ReadMany[V any](ctx context.Context, conn Conn, cd codec.Codec[V], keys ...string) ([]V, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	raws, err := conn.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("watchtx: mget: %w", err)
	}
	if len(raws) != len(keys) {
		return nil, fmt.Errorf("watchtx: mget returned %d values for %d keys", len(raws), len(keys))
	}
	out := make([]V, len(keys))
	for i, raw := range raws {
		if raw == nil {
			return nil, fmt.Errorf("watchtx: mget %q: %w", keys[i], ErrNotFound)
		}
		v, err := cd.Decode(raw)
		if err != nil {
			return nil, &DecodeError{Key: keys[i], Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// ReadManyWatched watches keys and then reads them, so the values feed into
// a batch that is guarded against concurrent modification of exactly those
// keys. The watch must be armed before the read it protects.
func ReadManyWatched[V any](ctx context.Context, conn Conn, cd codec.Codec[V], keys ...string) ([]V, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := conn.Watch(ctx, keys...); err != nil {
		return nil, fmt.Errorf("watchtx: watch: %w", err)
	}
	return ReadMany(ctx, conn, cd, keys...)
}

// AppendSet encodes v with cd and queues a set of the result under key.
// On encode failure the batch is left untouched and an *EncodeError is
// returned, so a failed append never submits a half-built operation.
func AppendSet[V any](b *Batch, cd codec.Codec[V], key string, v V) error {
	raw, err := cd.Encode(v)
	if err != nil {
		return &EncodeError{Key: key, Err: err}
	}
	b.Set(key, raw)
	return nil
}

// AppendSetTTL is AppendSet with an expiry on the written key.
func AppendSetTTL[V any](b *Batch, cd codec.Codec[V], key string, v V, ttl time.Duration) error {
	raw, err := cd.Encode(v)
	if err != nil {
		return &EncodeError{Key: key, Err: err}
	}
	b.SetTTL(key, raw, ttl)
	return nil
}
