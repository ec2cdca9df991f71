package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures the Redis-backed store.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix for stored sessions.
// Keys are stored as "prefix:token". Default: "session".
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// RedisStore keeps sessions in Redis as JSON documents.
// Each key expires together with its session.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a session store on top of an existing client.
// The client should be obtained from pkg/redis.Open; its lifecycle is
// managed by the caller.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	r := &RedisStore{
		client: client,
		prefix: "session",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}
	return r.save(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}

	if sess.IsExpired() {
		return nil, ErrExpired
	}

	return &sess, nil
}

// updateScript writes KEYS[2] only while the stored copy at KEYS[1] still
// exists, then drops KEYS[1] when the token was rotated.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[1], "EXAT", ARGV[2])
if KEYS[1] ~= KEYS[2] then
	redis.call("DEL", KEYS[1])
end
return 1
`)

// touchScript replaces KEYS[1] only if it still holds ARGV[1].
var touchScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
return 1
`)

// Update saves s. A session deleted since it was read is not recreated:
// Update returns ErrNotFound instead.
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}
	if s.IsExpired() {
		return ErrExpired
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	from := s.Token
	if prev := s.PreviousToken(); prev != "" {
		from = prev
	}

	keys := []string{r.key(from), r.key(s.Token)}
	written, err := updateScript.Run(ctx, r.client, keys, data, s.ExpiresAt.Unix()).Int()
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	if written == 0 {
		return ErrNotFound
	}

	s.ClearPreviousToken()
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Touch records activity. If the session changed between the read and the
// write, the newer value wins and the touch is dropped.
func (r *RedisStore) Touch(ctx context.Context, token string, lastActiveAt time.Time) error {
	key := r.key(token)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("session: get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("session: decode: %w", err)
	}
	if sess.IsExpired() {
		return ErrExpired
	}
	sess.LastActiveAt = lastActiveAt

	data, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	if err := touchScript.Run(ctx, r.client, []string{key}, raw, data).Err(); err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}
	return nil
}

// Close is a no-op. The Redis client is shut down via pkg/redis.Shutdown.
func (r *RedisStore) Close() error {
	return nil
}

func (r *RedisStore) save(ctx context.Context, s *Session) error {
	if s.IsExpired() {
		return ErrExpired
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	// EXAT keeps the key lifetime aligned with the session instead of the call time.
	args := redis.SetArgs{ExpireAt: s.ExpiresAt}
	if err := r.client.SetArgs(ctx, r.key(s.Token), data, args).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (r *RedisStore) key(token string) string {
	if r.prefix == "" {
		return token
	}
	return r.prefix + ":" + token
}

var _ Store = (*RedisStore)(nil)
