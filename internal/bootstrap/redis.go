package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/ssopoc/authgate/config"
)

// NewRedisClient creates the Redis client for the session store, using a
// failover client when sentinel is configured.
func NewRedisClient(cfg config.RedisConfig) redis.UniversalClient {
	if cfg.UseSentinel {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    cfg.SentinelNodes,
			SentinelPassword: cfg.SentinelPassword,
			Password:         cfg.Password,
			DB:               cfg.DB,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.URI,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
