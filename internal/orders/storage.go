package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session has no staged selection.
var ErrNotFound = errors.New("staged selection not found")

// ErrEmptyID is returned when trying to store a selection with an empty session ID.
var ErrEmptyID = errors.New("empty session ID")

// Storage keeps one staged selection per session.
type Storage interface {
	Set(ctx context.Context, sel *Selection) error
	Read(ctx context.Context, sessionID string) (*Selection, error)
	Delete(ctx context.Context, sessionID string) error
}

// LocalStorage provides an in-memory implementation for storing selections.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Selection
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*Selection{},
	}
}

// Set stores a copy of sel. Returns ErrEmptyID if sel has no session ID.
func (l *LocalStorage) Set(_ context.Context, sel *Selection) error {
	if sel.SessionID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[sel.SessionID] = sel.clone()
	return nil
}

// Read returns a copy of the session's selection, or ErrNotFound.
func (l *LocalStorage) Read(_ context.Context, sessionID string) (*Selection, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (l *LocalStorage) Delete(_ context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.m, sessionID)
	return nil
}

// RedisStorage shares staged selections between console instances.
// Selections expire after ttl without changes.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(addr string, password string, db int, ttl time.Duration) *RedisStorage {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) Set(ctx context.Context, sel *Selection) error {
	if sel.SessionID == "" {
		return ErrEmptyID
	}
	payload, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKey(sel.SessionID), payload, r.ttl).Err()
}

func (r *RedisStorage) Read(ctx context.Context, sessionID string) (*Selection, error) {
	val, err := r.client.Get(ctx, redisKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sel Selection
	if err := json.Unmarshal([]byte(val), &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

func (r *RedisStorage) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, redisKey(sessionID)).Err()
}

func redisKey(sessionID string) string {
	return "console:staged:" + sessionID
}
