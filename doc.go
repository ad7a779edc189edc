// Package watchtx implements optimistic-lock transactions over a watched
// key-value store (WATCH/MULTI/EXEC style), plus typed read/write helpers
// that store structured values as serialized bytes under plain keys.
//
// Components:
//   - Conn: stateful store connection with watch/unwatch, reads, and atomic
//     batch submission (e.g. a dedicated Redis connection).
//   - Batch: ordered write operations for one attempt, applied all-or-nothing.
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - Run/RunWith: the retry loop. Watches the keys, runs the caller body,
//     submits the batch, and retries from scratch when a watched key changed.
//
// Transaction pattern:
//
//	out := watchtx.Run[int, string](ctx, conn, []string{"counter"},
//	    func(ctx context.Context, conn watchtx.Conn, b *watchtx.Batch) (int, error) {
//	        n, err := watchtx.ReadOne(ctx, conn, codec.JSON[int]{}, "counter")
//	        if err != nil {
//	            return 0, err
//	        }
//	        if n < 0 {
//	            return 0, watchtx.Abort("negative counter")
//	        }
//	        return n + 1, watchtx.AppendSet(b, codec.JSON[int]{}, "counter", n+1)
//	    })
//
// A Conn must be exclusively owned by one in-flight transaction: watch state
// is connection-scoped, so sharing a Conn across concurrent transactions
// corrupts the lock check.
package watchtx
