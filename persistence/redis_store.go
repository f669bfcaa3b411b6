package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/councilflow/councilflow/types"
)

// RedisSessionStore is a Redis-backed SessionStore for shared
// deployments. Session headers and decisions are JSON values; the
// transcript is a list so opinions append in order.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(cfg RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "councilflow:"
	}
	return &RedisSessionStore{client: client, keyPrefix: prefix}, nil
}

func (s *RedisSessionStore) sessionKey(id string) string  { return s.keyPrefix + "session:" + id }
func (s *RedisSessionStore) opinionsKey(id string) string { return s.keyPrefix + "opinions:" + id }
func (s *RedisSessionStore) decisionKey(id string) string { return s.keyPrefix + "decision:" + id }

// SaveSession creates or updates a session header.
func (s *RedisSessionStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}

	cp := *rec
	cp.UpdatedAt = time.Now()
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.sessionKey(rec.ID), data, 0).Err()
}

// Session returns a stored session header.
func (s *RedisSessionStore) Session(ctx context.Context, id string) (*SessionRecord, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &rec, nil
}

// AppendOpinion appends one opinion to a session's transcript.
func (s *RedisSessionStore) AppendOpinion(ctx context.Context, sessionID string, op *types.Opinion) error {
	if sessionID == "" || op == nil {
		return ErrInvalidInput
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal opinion: %w", err)
	}
	return s.client.RPush(ctx, s.opinionsKey(sessionID), data).Err()
}

// Opinions returns a session's transcript in append order.
func (s *RedisSessionStore) Opinions(ctx context.Context, sessionID string) ([]types.Opinion, error) {
	items, err := s.client.LRange(ctx, s.opinionsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]types.Opinion, 0, len(items))
	for _, item := range items {
		var op types.Opinion
		if err := json.Unmarshal([]byte(item), &op); err != nil {
			return nil, fmt.Errorf("unmarshal opinion: %w", err)
		}
		out = append(out, op)
	}
	return out, nil
}

// SaveDecision stores the final decision for a session.
func (s *RedisSessionStore) SaveDecision(ctx context.Context, sessionID string, d *types.FinalDecision) error {
	if sessionID == "" || d == nil {
		return ErrInvalidInput
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	return s.client.Set(ctx, s.decisionKey(sessionID), data, 0).Err()
}

// Decision returns the stored decision, or ErrNotFound.
func (s *RedisSessionStore) Decision(ctx context.Context, sessionID string) (*types.FinalDecision, error) {
	data, err := s.client.Get(ctx, s.decisionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var d types.FinalDecision
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	return &d, nil
}

// Ping checks if the store is healthy.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
