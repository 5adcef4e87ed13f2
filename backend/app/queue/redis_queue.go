package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"compliance-feed/backend/app/history"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "pcf"

// ErrUnknownShard is returned for a receipt whose moniker names no
// configured queue shard.
var ErrUnknownShard = errors.New("unknown queue shard")

// RedisOption configures a RedisQueue.
type RedisOption func(*RedisQueue)

// WithNamespace sets the key prefix for queue keys.
func WithNamespace(ns string) RedisOption {
	return func(q *RedisQueue) {
		if ns != "" {
			q.namespace = ns
		}
	}
}

// RedisQueue reads the live command queue. Each shard moniker maps to its
// own redis client; a partition is one hash keyed by command id.
type RedisQueue struct {
	shards    map[string]*redis.Client
	namespace string
}

// NewRedisQueue connects to every shard and verifies it answers. shards maps
// a moniker to a redis URL such as "redis://localhost:6379/0".
func NewRedisQueue(ctx context.Context, shards map[string]string, opts ...RedisOption) (*RedisQueue, error) {
	q := &RedisQueue{shards: make(map[string]*redis.Client, len(shards)), namespace: defaultNamespace}
	for _, opt := range opts {
		opt(q)
	}
	for moniker, url := range shards {
		redisOpts, err := redis.ParseURL(url)
		if err != nil {
			q.Close()
			return nil, fmt.Errorf("invalid redis URL for shard %s: %w", moniker, err)
		}
		// a miss or a fault is reported to the caller as-is
		redisOpts.MaxRetries = -1
		client := redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			q.Close()
			return nil, fmt.Errorf("redis ping failed for shard %s: %w", moniker, err)
		}
		q.shards[moniker] = client
	}
	return q, nil
}

// NewRedisQueueWithClients wraps already constructed clients.
func NewRedisQueueWithClients(clients map[string]*redis.Client, opts ...RedisOption) *RedisQueue {
	q := &RedisQueue{shards: clients, namespace: defaultNamespace}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PartitionKey returns the redis key holding the partition a receipt points into.
func (q *RedisQueue) PartitionKey(r LeaseReceipt) string {
	return q.namespace + ":queue:" + r.partition()
}

// Shards lists the configured monikers.
func (q *RedisQueue) Shards() []string {
	out := make([]string, 0, len(q.shards))
	for m := range q.shards {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// QueryCommand does one point lookup. It returns nil, nil when the command
// is not in the queue.
func (q *RedisQueue) QueryCommand(ctx context.Context, r LeaseReceipt) (*PrivacyCommand, error) {
	client, ok := q.shards[r.DatabaseMoniker]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShard, r.DatabaseMoniker)
	}
	data, err := client.HGet(ctx, q.PartitionKey(r), r.CommandID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query queue shard %s: %w", r.DatabaseMoniker, err)
	}
	var cmd PrivacyCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		if errors.Is(err, history.ErrCorruptRecord) {
			return nil, fmt.Errorf("queued command %s: %w", r.CommandID, err)
		}
		return nil, fmt.Errorf("%w: queued command %s: %v", history.ErrCorruptRecord, r.CommandID, err)
	}
	return &cmd, nil
}

func (q *RedisQueue) Close() {
	for _, c := range q.shards {
		_ = c.Close()
	}
}
