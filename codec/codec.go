// Package codec defines the value serialization used by watchtx helpers.
// A codec turns a value V into the raw bytes stored under a plain key and
// back; the transaction engine itself never inspects the bytes.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
