// Package redis keeps revoked token ids in redis. Each record lives exactly
// as long as the token it revokes, so no pruning is needed.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
)

const keyPrefix = "revoked:"

type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration

	// Leeway is the token verification leeway. Keys outlive the token's
	// exp by this much so a revoked token cannot verify again.
	Leeway time.Duration
}

type Store struct {
	client *redis.Client
	leeway time.Duration
	now    func() time.Time
}

// NewStore connects to redis and pings it.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: rdb, leeway: cfg.Leeway, now: time.Now}, nil
}

func (s *Store) RevokedTokens() store.RevokedTokens { return s }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAll watches every key of the batch, fails if any already exists and
// otherwise sets them all in one MULTI/EXEC.
func (s *Store) RevokeAll(ctx context.Context, tokens []domain.RevokedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = keyPrefix + t.TokenID
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return store.ErrAlreadyExists
		}

		now := s.now()
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, t := range tokens {
				pipe.Set(ctx, keys[i], t.UserID, remaining(t.ExpiresAt.Add(s.leeway), now))
			}
			return nil
		})
		return err
	}, keys...)

	// A watched key changed under us: someone else revoked part of the batch.
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	}
	return err
}

// DeleteExpired is a no-op; redis expires the keys itself.
func (s *Store) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// remaining is the record TTL. Redis rejects a zero TTL on SET with
// expiration, so already expired tokens keep their record for a second.
func remaining(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
