package guard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrInFlight = errors.New("OPERATION_IN_PROGRESS")

type Config struct {
	Enable    bool   `mapstructure:"enable"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// KeyGuard keeps two requests for the same business key from reaching the
// gateway at once. It complements the unique indexes, it does not replace them.
type KeyGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// compare and delete so a slow holder never frees a key it lost to expiry
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisGuard struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisGuard(cfg Config, client *redis.Client, logger *zap.Logger) KeyGuard {
	return &redisGuard{client: client, prefix: cfg.KeyPrefix, logger: logger}
}

func (g *redisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := g.prefix + key
	owner := uuid.NewString()

	ok, err := g.client.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrInFlight
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, g.client, []string{fullKey}, owner).Err(); err != nil {
			g.logger.Warn("Failed to release in-flight key",
				zap.String("key", fullKey),
				zap.Error(err))
		}
	}, nil
}

type noopGuard struct{}

func NewNoopGuard() KeyGuard {
	return noopGuard{}
}

func (noopGuard) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
