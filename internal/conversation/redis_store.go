package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session history in Redis lists for multi-process
// deployments. Each turn is a JSON-encoded list element; every append trims
// the list to the configured maximum.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	maxTurns int
}

// NewRedisStore creates a Redis-backed session store and verifies the
// connection.
func NewRedisStore(client *redis.Client, maxTurns int) (*RedisStore, error) {
	if maxTurns <= 0 {
		maxTurns = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), clientPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis session store ping: %w", err)
	}

	return &RedisStore{client: client, prefix: "cs:session:", maxTurns: maxTurns}, nil
}

// Append pushes turns onto the session list and trims to maxTurns.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode session turn: %w", err)
		}
		values = append(values, data)
	}

	key := s.prefix + sessionID
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append session turns: %w", err)
	}
	return nil
}

// Read returns the full stored history, oldest first.
func (s *RedisStore) Read(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, s.prefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session turns: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode session turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

var _ Store = (*RedisStore)(nil)
