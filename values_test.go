package watchtx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// failCodec always fails to encode; decode is identity.
type failCodec struct{ err error }

func (f failCodec) Encode([]byte) ([]byte, error)   { return nil, f.err }
func (f failCodec) Decode(b []byte) ([]byte, error) { return b, nil }

func TestReadOne(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		fc := newFakeConn()
		fc.put("n", []byte("42"))
		got, err := ReadOne(ctx, fc, intJSON, "n")
		if err != nil || got != 42 {
			t.Fatalf("ReadOne = (%d, %v), want (42, nil)", got, err)
		}
	})

	t.Run("absent_is_not_found", func(t *testing.T) {
		fc := newFakeConn()
		_, err := ReadOne(ctx, fc, intJSON, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), `"missing"`) {
			t.Fatalf("error should name the key: %v", err)
		}
	})

	t.Run("corrupt_is_decode_error", func(t *testing.T) {
		fc := newFakeConn()
		fc.put("n", []byte("{broken"))
		_, err := ReadOne(ctx, fc, intJSON, "n")
		var decErr *DecodeError
		if !errors.As(err, &decErr) || decErr.Key != "n" {
			t.Fatalf("want DecodeError for n, got %v", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Fatalf("corrupt must not be reported as missing")
		}
	})

	t.Run("store_error_propagates", func(t *testing.T) {
		fc := newFakeConn()
		sentinel := errors.New("io timeout")
		fc.getErr = sentinel
		_, err := ReadOne(ctx, fc, intJSON, "n")
		if !errors.Is(err, sentinel) {
			t.Fatalf("want wrapped store error, got %v", err)
		}
	})
}

func TestReadOptional(t *testing.T) {
	ctx := context.Background()
	fc := newFakeConn()

	if _, ok, err := ReadOptional(ctx, fc, intJSON, "missing"); ok || err != nil {
		t.Fatalf("absent key: ok=%v err=%v, want (false, nil)", ok, err)
	}

	fc.put("n", []byte("7"))
	got, ok, err := ReadOptional(ctx, fc, intJSON, "n")
	if !ok || err != nil || got != 7 {
		t.Fatalf("present key: (%d, %v, %v), want (7, true, nil)", got, ok, err)
	}

	fc.put("bad", []byte("}{"))
	var decErr *DecodeError
	if _, _, err := ReadOptional(ctx, fc, intJSON, "bad"); !errors.As(err, &decErr) {
		t.Fatalf("corrupt key: want DecodeError, got %v", err)
	}
}

func TestReadMany(t *testing.T) {
	ctx := context.Background()

	t.Run("positional_zip", func(t *testing.T) {
		fc := newFakeConn()
		fc.put("a", []byte("1"))
		fc.put("b", []byte("2"))
		fc.put("c", []byte("3"))
		got, err := ReadMany(ctx, fc, intJSON, "c", "a", "b")
		if err != nil {
			t.Fatalf("ReadMany: %v", err)
		}
		if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
			t.Fatalf("values not positional: %v", got)
		}
	})

	// Single-key and repeated-key requests must decode to equal values for
	// the same stored content; absence semantics are uniform across arities.
	t.Run("single_vs_repeated_consistent", func(t *testing.T) {
		fc := newFakeConn()
		fc.put("a", []byte("11"))

		one, err := ReadMany(ctx, fc, intJSON, "a")
		if err != nil || len(one) != 1 {
			t.Fatalf("single: (%v, %v)", one, err)
		}
		two, err := ReadMany(ctx, fc, intJSON, "a", "a")
		if err != nil || len(two) != 2 {
			t.Fatalf("repeated: (%v, %v)", two, err)
		}
		if one[0] != two[0] || two[0] != two[1] {
			t.Fatalf("inconsistent decode: one=%v two=%v", one, two)
		}
	})

	t.Run("any_absent_key_fails", func(t *testing.T) {
		fc := newFakeConn()
		fc.put("a", []byte("1"))

		if _, err := ReadMany(ctx, fc, intJSON, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("single absent: want ErrNotFound, got %v", err)
		}
		_, err := ReadMany(ctx, fc, intJSON, "a", "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("multi absent: want ErrNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), `"missing"`) {
			t.Fatalf("error should name the absent key: %v", err)
		}
	})

	t.Run("empty_request", func(t *testing.T) {
		fc := newFakeConn()
		got, err := ReadMany(ctx, fc, intJSON)
		if err != nil || got != nil {
			t.Fatalf("empty request: (%v, %v), want (nil, nil)", got, err)
		}
		if fc.count("mget") != 0 {
			t.Fatalf("empty request must not hit the store")
		}
	})
}

// ReadManyWatched must arm the watch before the read it protects.
func TestReadManyWatchedOrdering(t *testing.T) {
	ctx := context.Background()
	fc := newFakeConn()
	fc.put("a", []byte("1"))

	got, err := ReadManyWatched(ctx, fc, intJSON, "a")
	if err != nil || len(got) != 1 || got[0] != 1 {
		t.Fatalf("ReadManyWatched: (%v, %v)", got, err)
	}
	if len(fc.calls) < 2 || fc.calls[0] != "watch" || fc.calls[1] != "mget" {
		t.Fatalf("watch must precede the read, got %v", fc.calls)
	}
	if _, ok := fc.watched["a"]; !ok {
		t.Fatalf("key not left watched for the caller's batch")
	}
}

func TestAppendSet(t *testing.T) {
	t.Run("queues_encoded_value", func(t *testing.T) {
		b := NewBatch()
		if err := AppendSet(b, intJSON, "n", 9); err != nil {
			t.Fatalf("AppendSet: %v", err)
		}
		ops := b.Ops()
		if len(ops) != 1 || ops[0].Kind != OpSet || ops[0].Key != "n" || string(ops[0].Value) != "9" {
			t.Fatalf("unexpected op: %+v", ops)
		}
	})

	t.Run("encode_failure_leaves_batch_untouched", func(t *testing.T) {
		b := NewBatch()
		b.Set("existing", []byte("x"))

		sentinel := errors.New("cannot encode")
		err := AppendSet[[]byte](b, failCodec{err: sentinel}, "k", []byte("v"))
		var encErr *EncodeError
		if !errors.As(err, &encErr) || encErr.Key != "k" || !errors.Is(err, sentinel) {
			t.Fatalf("want EncodeError wrapping sentinel, got %v", err)
		}
		if b.Len() != 1 {
			t.Fatalf("failed append mutated the batch: %d ops", b.Len())
		}
	})

	t.Run("ttl_variant", func(t *testing.T) {
		b := NewBatch()
		if err := AppendSetTTL(b, intJSON, "n", 9, time.Minute); err != nil {
			t.Fatalf("AppendSetTTL: %v", err)
		}
		if got := b.Ops()[0].TTL; got != time.Minute {
			t.Fatalf("TTL = %v, want 1m", got)
		}
	})
}
