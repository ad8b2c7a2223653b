package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/spiffcs/ghinbox/internal/model"
)

var (
	_ Cache       = (*Redis)(nil)
	_ BatchSetter = (*Redis)(nil)
)

const defaultRedisKey = "ghinbox:threads"

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	URL string
	// Key is the hash holding every thread; defaults to "ghinbox:threads".
	Key string
	// Client, when set, is used instead of dialing URL.
	Client *redis.Client
}

// Redis stores threads as JSON values in a single hash keyed by thread id.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := cfg.Client
	if client == nil {
		if cfg.URL == "" {
			return nil, errors.New("redis cache backend requires a redis url")
		}
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		client = redis.NewClient(opt)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &Redis{client: client, key: key}, nil
}

func (r *Redis) Get(ctx context.Context, id string) (model.Thread, error) {
	data, err := r.client.HGet(ctx, r.key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Thread{}, ErrNotFound
	}
	if err != nil {
		return model.Thread{}, fmt.Errorf("failed to get thread %s: %w", id, err)
	}

	var t model.Thread
	if err := go_json.Unmarshal(data, &t); err != nil {
		return model.Thread{}, fmt.Errorf("failed to unmarshal thread %s: %w", id, err)
	}
	return t, nil
}

func (r *Redis) Set(ctx context.Context, t model.Thread) error {
	data, err := go_json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal thread %s: %w", t.ID, err)
	}
	if err := r.client.HSet(ctx, r.key, t.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to set thread %s: %w", t.ID, err)
	}
	return nil
}

// SetMany writes every thread with a single HSET.
func (r *Redis) SetMany(ctx context.Context, threads []model.Thread) error {
	values := make(map[string]any, len(threads))
	for _, t := range threads {
		data, err := go_json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal thread %s: %w", t.ID, err)
		}
		values[t.ID] = data
	}
	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		return fmt.Errorf("failed to set %d threads: %w", len(threads), err)
	}
	return nil
}

// Remove rewrites the thread with a closed status inside an optimistic
// transaction so a concurrent Set is never lost.
func (r *Redis) Remove(ctx context.Context, id string) error {
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, r.key, id).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get thread %s: %w", id, err)
		}

		var t model.Thread
		if err := go_json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to unmarshal thread %s: %w", id, err)
		}
		t.Status = model.StatusClosed
		updated, err := go_json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal thread %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, id, updated)
			return nil
		})
		return err
	}, r.key)
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear threads: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]model.Thread, error) {
	values, err := r.client.HVals(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	out := make([]model.Thread, 0, len(values))
	for _, v := range values {
		var t model.Thread
		if err := go_json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal thread: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
