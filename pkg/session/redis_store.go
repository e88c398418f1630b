package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON values that expire with the session.
// Each user has a set of its tokens so DeleteByUserID needs no scan.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ StoreWithCleanup = (*RedisStore)(nil)

// NewRedisStore creates a Redis store. Keys are stored under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	return s.write(ctx, session, false)
}

func (s *RedisStore) write(ctx context.Context, session *Session, mustExist bool) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	if mustExist {
		ok, err := s.client.SetXX(ctx, s.key(session.Token), data, ttl).Result()
		if err != nil {
			return fmt.Errorf("session: redis update: %w", err)
		}
		if !ok {
			return ErrSessionNotFound
		}
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(session.Token), data, ttl)
	if session.UserID != nil {
		uk := s.userKey(session.UserID.String())
		pipe.SAdd(ctx, uk, session.Token)
		pipe.ExpireGT(ctx, uk, ttl)
		pipe.ExpireNX(ctx, uk, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: redis create: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	return s.write(ctx, session, true)
}

func (s *RedisStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.LastActivityAt = lastActivity
	return s.write(ctx, session, true)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("session: redis delete: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: keys expire with their sessions.
func (s *RedisStore) DeleteExpired(context.Context) error {
	return nil
}

func (s *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return err
	}
	uk := s.userKey(userID)
	tokens, err := s.client.SMembers(ctx, uk).Result()
	if err != nil {
		return fmt.Errorf("session: redis user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.key(token))
	}
	keys = append(keys, uk)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: redis delete user sessions: %w", err)
	}
	return nil
}
