package codec

import (
	"strings"
	"testing"
)

type account struct {
	ID      string `json:"id" msgpack:"id"`
	Balance int64  `json:"balance" msgpack:"balance"`
}

func TestJSONRoundTrip(t *testing.T) {
	cd := JSON[account]{}
	want := account{ID: "a-1", Balance: 250}

	b, err := cd.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := cd.Decode(b)
	if err != nil || got != want {
		t.Fatalf("Decode = (%+v, %v), want %+v", got, err, want)
	}

	if _, err := cd.Decode([]byte("{nope")); err == nil {
		t.Fatalf("Decode should reject malformed input")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	cd := Msgpack[account]{}
	want := account{ID: "a-2", Balance: -7}

	b, err := cd.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := cd.Decode(b)
	if err != nil || got != want {
		t.Fatalf("Decode = (%+v, %v), want %+v", got, err, want)
	}
}

func TestCBORRoundTrip(t *testing.T) {
	cd := MustCBOR[account](true)
	want := account{ID: "a-3", Balance: 9000}

	b, err := cd.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// deterministic mode: same value, same bytes
	b2, err := cd.Encode(want)
	if err != nil || string(b) != string(b2) {
		t.Fatalf("deterministic encode not stable")
	}
	got, err := cd.Decode(b)
	if err != nil || got != want {
		t.Fatalf("Decode = (%+v, %v), want %+v", got, err, want)
	}
}

func TestIdentityCodecs(t *testing.T) {
	raw := []byte{0x00, 0xFF, 0x42}
	if b, err := (Bytes{}).Encode(raw); err != nil || string(b) != string(raw) {
		t.Fatalf("Bytes.Encode changed input")
	}
	if s, err := (String{}).Decode([]byte("héllo")); err != nil || s != "héllo" {
		t.Fatalf("String.Decode = (%q, %v)", s, err)
	}
}

func TestLimitCodec(t *testing.T) {
	cd := LimitCodec[string]{Inner: String{}, MaxDecode: 4}

	if _, err := cd.Decode([]byte("okay")); err != nil {
		t.Fatalf("payload at limit should pass: %v", err)
	}
	_, err := cd.Decode([]byte("too long"))
	if err == nil || !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("oversized payload should be rejected, got %v", err)
	}

	// disabled limit
	cd.MaxDecode = 0
	if _, err := cd.Decode([]byte(strings.Repeat("x", 1<<16))); err != nil {
		t.Fatalf("disabled limit must forward to inner: %v", err)
	}
}
