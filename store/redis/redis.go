// Package redis implements watchtx.Conn over a dedicated go-redis connection.
//
// WATCH state in Redis is scoped to one network connection, so each Conn
// pins a single connection out of the client's pool for its whole lifetime.
// Redis clears watch state on EXEC (successful or not), on UNWATCH, and when
// the connection closes. After a transport error the engine stops issuing
// commands on the connection; Close it to drop any armed watches.
package redis

import (
	"context"
	"errors"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/watchtx"
)

var ErrNilClient = errors.New("redis store: nil client")

// Conn adapts one pinned go-redis connection to watchtx.Conn.
// Not safe for concurrent transactions; see watchtx.Conn.
type Conn struct {
	c *goredis.Conn
}

var _ watchtx.Conn = (*Conn)(nil)

// New pins a dedicated connection from client. The caller owns the returned
// Conn and must Close it to return the connection (and clear watches).
func New(client *goredis.Client) (*Conn, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Conn{c: client.Conn()}, nil
}

// FromConn wraps an already-pinned connection. Useful when the caller needs
// to run setup commands (AUTH, SELECT) on the same connection first.
func FromConn(conn *goredis.Conn) (*Conn, error) {
	if conn == nil {
		return nil, ErrNilClient
	}
	return &Conn{c: conn}, nil
}

func (p *Conn) Watch(ctx context.Context, keys ...string) error {
	args := make([]interface{}, 1+len(keys))
	args[0] = "watch"
	for i, key := range keys {
		args[1+i] = key
	}
	cmd := goredis.NewStatusCmd(ctx, args...)
	_ = p.c.Process(ctx, cmd)
	return cmd.Err()
}

func (p *Conn) Unwatch(ctx context.Context) error {
	cmd := goredis.NewStatusCmd(ctx, "unwatch")
	_ = p.c.Process(ctx, cmd)
	return cmd.Err()
}

func (p *Conn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // absent
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Conn) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	vals, err := p.c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// absent key; leave entry nil
		case string:
			out[i] = []byte(vv)
		case []byte:
			out[i] = vv
		default:
			return nil, errors.New("redis store: unexpected mget reply type")
		}
	}
	return out, nil
}

// Submit replays the batch into a MULTI/EXEC pipeline. A nil EXEC reply
// (reported by go-redis as TxFailedErr) means a watched key changed and is
// translated to watchtx.ErrTxFailed.
func (p *Conn) Submit(ctx context.Context, b *watchtx.Batch) ([]watchtx.Reply, error) {
	if b.Len() == 0 {
		return nil, nil
	}
	pipe := p.c.TxPipeline()
	for _, op := range b.Ops() {
		switch op.Kind {
		case watchtx.OpSet:
			pipe.Set(ctx, op.Key, op.Value, op.TTL)
		case watchtx.OpDel:
			pipe.Del(ctx, op.Key)
		default:
			return nil, errors.New("redis store: unknown batch op")
		}
	}
	cmds, err := pipe.Exec(ctx)
	if err == goredis.TxFailedErr {
		return nil, watchtx.ErrTxFailed
	}
	if err != nil {
		return nil, err
	}
	replies := make([]watchtx.Reply, len(cmds))
	for i, cmd := range cmds {
		replies[i] = watchtx.Reply{Val: replyVal(cmd), Err: cmd.Err()}
	}
	return replies, nil
}

// Close returns the pinned connection to the client, clearing any watch
// state Redis still holds for it. Safe to call once per Conn.
func (p *Conn) Close(context.Context) error {
	if err := p.c.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}

func replyVal(cmd goredis.Cmder) string {
	switch c := cmd.(type) {
	case *goredis.StatusCmd:
		return c.Val()
	case *goredis.IntCmd:
		return strconv.FormatInt(c.Val(), 10)
	default:
		return ""
	}
}
