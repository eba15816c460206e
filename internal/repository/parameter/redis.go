package parameter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/go-redis/redis/v8"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// RedisStore keeps the parameter in a redis hash.
// Conditional writes use WATCH/MULTI so they are atomic across processes.
// Unconditional writes skip WATCH and always succeed: last writer wins.
type RedisStore struct {
	// client is the redis connection.
	client *redis.Client
	// key is the hash key, the parameter name.
	key string
	// clock stamps writes.
	clock clock.Clock
}

// NewRedisStore creates a store for the named parameter.
func NewRedisStore(client *redis.Client, key string, clk clock.Clock) *RedisStore {
	if clk == nil {
		clk = clock.NewClock()
	}

	return &RedisStore{
		client: client,
		key:    key,
		clock:  clk,
	}
}

// Get reads the parameter hash.
func (r *RedisStore) Get(ctx context.Context) (*Value, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read parameter %s: %w", r.key, err)
	}

	return decodeHash(r.key, fields)
}

// Put writes the parameter hash, honoring expectedVersion.
func (r *RedisStore) Put(ctx context.Context, value scale.Scale, expectedVersion int64) (*Value, error) {
	if expectedVersion == Unconditional {
		return r.overwrite(ctx, value)
	}

	var written *Value

	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, r.key, fieldVersion).Int64()

		switch {
		case err == nil:
		case errors.Is(err, redis.Nil):
			current = 0
		default:
			return fmt.Errorf("read parameter version: %w", err)
		}

		if expectedVersion != Unconditional && expectedVersion != current {
			return ErrConflict
		}

		next := &Value{
			Scale:     value,
			Version:   current + 1,
			UpdatedAt: r.clock.Now().UTC(),
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, map[string]any{
				fieldValue:     next.Scale.String(),
				fieldVersion:   next.Version,
				fieldUpdatedAt: next.UpdatedAt.Format(time.RFC3339Nano),
			})

			return nil
		})
		if err != nil {
			return err
		}

		written = next

		return nil
	}

	err := r.client.Watch(ctx, txf, r.key)

	switch {
	case err == nil:
		return written, nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return nil, ErrConflict
	default:
		return nil, fmt.Errorf("write parameter %s: %w", r.key, err)
	}
}

// overwrite writes value in a single MULTI without WATCH, so a concurrent
// writer never makes it fail. The version is bumped atomically.
func (r *RedisStore) overwrite(ctx context.Context, value scale.Scale) (*Value, error) {
	updatedAt := r.clock.Now().UTC()

	var version *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		version = pipe.HIncrBy(ctx, r.key, fieldVersion, 1)
		pipe.HSet(ctx, r.key, map[string]any{
			fieldValue:     value.String(),
			fieldUpdatedAt: updatedAt.Format(time.RFC3339Nano),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write parameter %s: %w", r.key, err)
	}

	return &Value{
		Scale:     value,
		Version:   version.Val(),
		UpdatedAt: updatedAt,
	}, nil
}

// decodeHash converts redis hash fields into a Value.
func decodeHash(key string, fields map[string]string) (*Value, error) {
	raw, ok := fields[fieldValue]
	if !ok {
		return nil, ErrNotFound
	}

	stored, err := parseStored(raw)
	if err != nil {
		return nil, err
	}

	result := &Value{
		Scale: stored,
	}

	if result.Version, err = strconv.ParseInt(fields[fieldVersion], 10, 64); err != nil {
		return nil, fmt.Errorf("decode parameter %s version: %w", key, err)
	}

	if rawTime := fields[fieldUpdatedAt]; rawTime != "" {
		if result.UpdatedAt, err = time.Parse(time.RFC3339Nano, rawTime); err != nil {
			return nil, fmt.Errorf("decode parameter %s timestamp: %w", key, err)
		}
	}

	return result, nil
}
