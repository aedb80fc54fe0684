package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const defaultRevocationKey = "identity:revoked_tokens"

// RedisRevocations implements RevocationRegistry on a redis set. Inserts are
// commutative and idempotent (SADD), so concurrent logouts for distinct
// tokens need no coordination and re-revoking an already revoked token is a
// no-op. Entries are never evicted here; the refresh TTL bounds how long an
// entry remains useful.
type RedisRevocations struct {
	client redis.UniversalClient
	key    string
	logger Logger
}

// RevocationsOption configures a RedisRevocations instance
type RevocationsOption func(*RedisRevocations)

// WithRevocationKey overrides the redis set key
func WithRevocationKey(key string) RevocationsOption {
	return func(r *RedisRevocations) {
		if key != "" {
			r.key = key
		}
	}
}

// WithRevocationsLogger overrides the logger
func WithRevocationsLogger(logger Logger) RevocationsOption {
	return func(r *RedisRevocations) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRedisRevocations creates a registry backed by the given redis client
func NewRedisRevocations(client redis.UniversalClient, opts ...RevocationsOption) *RedisRevocations {
	r := &RedisRevocations{
		client: client,
		key:    defaultRevocationKey,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

var _ RevocationRegistry = (*RedisRevocations)(nil)

// Revoke inserts the token id into the registry
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return ErrNoEmptyString
	}

	if err := r.client.SAdd(ctx, r.key, tokenID).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record token revocation")
	}

	return nil
}

// IsRevoked reports whether the token id has been revoked
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, ErrNoEmptyString
	}

	revoked, err := r.client.SIsMember(ctx, r.key, tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check token revocation")
	}

	return revoked, nil
}
