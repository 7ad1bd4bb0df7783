package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisCertPrefix = "certvault:cert:"
	redisLogKey     = "certvault:log"
)

// appendCertificateScript writes a certificate key and its log entry in one
// atomic step. The log push runs first, so a failure leaves nothing behind.
// Returns 0 when the key already exists.
const appendCertificateScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	Close() error
}

// RedisStore keeps one key per certificate, never overwritten once set, and
// mirrors every entry into a list that serves as the append log. A
// certificate's key and log entry are written together or not at all.
type RedisStore struct {
	client redisClient
}

// NewRedisStore connects lazily to the server at addr.
func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Append(ctx context.Context, e models.Entry) error {
	doc, err := encodeEntry(e)
	if err != nil {
		return err
	}

	if doc.key != "" {
		keys := []string{redisCertPrefix + doc.key, redisLogKey}
		n, err := s.client.Eval(ctx, appendCertificateScript, keys, doc.body).Int64()
		if err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
		if n == 0 {
			return common.ErrorAlreadyExists
		}
		return nil
	}

	if err := s.client.RPush(ctx, redisLogKey, doc.body).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, certificateID string) (*models.Record, error) {
	b, err := s.client.Get(ctx, redisCertPrefix+certificateID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return decodeRecord(b)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
