package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/srxprov/srxprov/pkg/provision"
)

// defaultRedisKey is the list key holding serialized outcomes.
const defaultRedisKey = "srxprov:history"

// redisMaxEntries caps the history list; older entries are trimmed.
const redisMaxEntries = 1000

// RedisStore keeps outcomes in a Redis list, newest at the head, so Recent
// is a single LRANGE.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis at addr (e.g. "127.0.0.1:6379") and
// verifies the connection with a ping.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, key: defaultRedisKey}, nil
}

func (s *RedisStore) Append(ctx context.Context, outcome *provision.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, redisMaxEntries-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Recent(ctx context.Context, n int) ([]*provision.Outcome, error) {
	if n <= 0 {
		return nil, nil
	}
	lines, err := s.client.LRange(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history from redis: %w", err)
	}
	out := make([]*provision.Outcome, 0, len(lines))
	for _, line := range lines {
		var o provision.Outcome
		if err := json.Unmarshal([]byte(line), &o); err != nil {
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
