package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix  = "sess:id:"
	userIndexPrefix   = "sess:user:"
	defaultSessionTTL = 24 * time.Hour
)

// RedisSessionStore is a Redis-backed session store. Sessions are stored as
// JSON with a TTL matching their expiry; a per-user set indexes sessions for
// bulk deletion on sign-out-everywhere.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisSessionStore) Create(ctx context.Context, session *identity.Session) error {
	record := sessionRecord{
		ID:        session.ID.String(),
		UserID:    session.UserID.String(),
		Email:     session.Email,
		Device:    session.Device,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := defaultSessionTTL
	if !session.ExpiresAt.IsZero() {
		if remaining := time.Until(session.ExpiresAt); remaining > 0 {
			ttl = remaining
		}
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+record.ID, payload, ttl)
	pipe.SAdd(ctx, userIndexPrefix+record.UserID, record.ID)
	pipe.Expire(ctx, userIndexPrefix+record.UserID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (*identity.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return record.toSession()
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	// Look the session up first so the user index stays consistent. A missing
	// session is a no-op per store contract.
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID.String())
	pipe.SRem(ctx, userIndexPrefix+session.UserID.String(), sessionID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	indexKey := userIndexPrefix + userID.String()
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, sessionID := range ids {
		pipe.Del(ctx, sessionKeyPrefix+sessionID)
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r sessionRecord) toSession() (*identity.Session, error) {
	sessionID, err := id.ParseSessionID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse stored session id: %w", err)
	}
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse stored user id: %w", err)
	}
	return &identity.Session{
		ID:        sessionID,
		UserID:    userID,
		Email:     r.Email,
		Device:    r.Device,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}, nil
}
