package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares a credential through Redis so that every process of the service
// reuses one issued token instead of asking the issuer for its own.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore under namespace (default "credential").
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "credential"
	}
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("%s:credential", namespace),
		now:    time.Now,
	}
}

// Load returns the stored credential. A corrupted entry is deleted and reported as missing.
func (s *RedisStore) Load(ctx context.Context) (Credential, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credential{}, false, nil
		}
		return Credential{}, false, err
	}

	var cred Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		slog.Warn("discarding corrupted shared credential", "key", s.key, "error", err)
		_ = s.client.Del(ctx, s.key).Err()
		return Credential{}, false, nil
	}
	return cred, true, nil
}

// Save stores cred with a TTL matching its remaining lifetime. Expired credentials are not stored.
func (s *RedisStore) Save(ctx context.Context, cred Credential) error {
	ttl := cred.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	return s.client.Set(ctx, s.key, data, ttl).Err()
}

// Delete removes the stored credential.
func (s *RedisStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
