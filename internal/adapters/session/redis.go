package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/config"
	"github.com/flatcms/core/internal/ports"
)

const redisKeyPrefix = "flatcms:session:"

// RedisStore keeps sessions in Redis as JSON with a sliding TTL
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient creates and pings a Redis client
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

var _ ports.SessionStore = (*RedisStore)(nil)

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) New(ctx context.Context) (*entities.Session, error) {
	return entities.NewSession(uuid.New().String()), nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*entities.Session, error) {
	val, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess entities.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, session *entities.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	session.MarkClean()
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	if err := s.rdb.Expire(ctx, redisKey(id), s.ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
