package watchtx

import (
	"testing"
	"time"
)

func TestBatchOrderingAndChaining(t *testing.T) {
	b := NewBatch().
		Set("a", []byte("1")).
		SetTTL("b", []byte("2"), time.Second).
		Del("c", "d")

	ops := b.Ops()
	if len(ops) != 4 {
		t.Fatalf("len = %d, want 4", len(ops))
	}
	want := []struct {
		kind OpKind
		key  string
	}{
		{OpSet, "a"},
		{OpSet, "b"},
		{OpDel, "c"},
		{OpDel, "d"},
	}
	for i, w := range want {
		if ops[i].Kind != w.kind || ops[i].Key != w.key {
			t.Fatalf("op[%d] = %+v, want kind=%d key=%q", i, ops[i], w.kind, w.key)
		}
	}
	if ops[1].TTL != time.Second {
		t.Fatalf("SetTTL lost its TTL: %v", ops[1].TTL)
	}
}

func TestBatchNegativeTTLNormalized(t *testing.T) {
	b := NewBatch().SetTTL("k", []byte("v"), -time.Second)
	if got := b.Ops()[0].TTL; got != 0 {
		t.Fatalf("negative TTL should store without expiry, got %v", got)
	}
}

func TestBatchLen(t *testing.T) {
	b := NewBatch()
	if b.Len() != 0 {
		t.Fatalf("fresh batch not empty")
	}
	b.Set("k", nil)
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
}
