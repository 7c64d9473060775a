package redis

import (
	"log"
	"sync"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
)

var (
	client radix.Client
	once   sync.Once
)

// Init opens the Redis connection pool. An empty address returns nil: the
// token cache degrades to plain JWT parsing without revocation.
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		if cfg.Addr == "" {
			return
		}
		pool, err := radix.NewPool("tcp", cfg.Addr, 10)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		client = pool
	})
	return client
}

// Client returns the pool, nil when Redis is disabled.
func Client() radix.Client {
	return client
}
