package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"amendvote-be/internal/domain"
	"amendvote-be/pkg/redis"
)

// SessionService is a Redis-backed SessionStore. Sessions live in their own
// keyspace instead of on the user record, so a user can hold several
// concurrent sessions and revocation is a single key delete. Keys expire
// after the configured TTL; logout deletes them immediately.
type SessionService struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionService creates a session store with the given TTL. A zero TTL
// falls back to the default.
func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = redis.TTLSessionDefault
	}
	return &SessionService{redis: redisClient, ttl: ttl}
}

func (s *SessionService) Create(ctx context.Context, session domain.Session) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	key := s.redis.KeyBuilder.KeySession(token)
	if err := s.redis.Set(ctx, key, payload, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

func (s *SessionService) Get(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}

	key := s.redis.KeyBuilder.KeySession(token)
	payload, err := s.redis.Get(ctx, key)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *SessionService) Delete(ctx context.Context, token string) (bool, error) {
	key := s.redis.KeyBuilder.KeySession(token)
	deleted, err := s.redis.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted > 0, nil
}

// generateSessionToken returns a 64-character hex token from 32 random bytes.
func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
