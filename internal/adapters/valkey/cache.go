package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// A missing key is reported as a nil value with a nil error.
type Cache struct {
	client valkey.Client
	prefix string
}

// New creates a new Valkey cache client. Keys are namespaced with prefix.
func New(addr, prefix string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, prefix: prefix}, nil
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetMany fetches several keys in one round trip. The result is aligned with
// keys; misses are nil.
func (c *Cache) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	msgs, err := c.client.Do(ctx, c.client.B().Mget().Key(full...).Build()).ToArray()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(keys))
	for i := range msgs {
		if i >= len(out) {
			break
		}
		b, err := msgs[i].AsBytes()
		if err != nil {
			continue
		}
		out[i] = b
	}
	return out, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// SetMany stores values in a single pipeline.
func (c *Cache) SetMany(ctx context.Context, values map[string][]byte, ttlSeconds int) error {
	if len(values) == 0 {
		return nil
	}
	cmds := make(valkey.Commands, 0, len(values))
	for k, v := range values {
		cmds = append(cmds, c.client.B().Set().Key(c.key(k)).Value(valkey.BinaryString(v)).Ex(time.Duration(ttlSeconds)*time.Second).Build())
	}
	for _, res := range c.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the connection for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
