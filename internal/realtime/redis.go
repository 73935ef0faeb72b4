package realtime

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the Redis client used for push-notification hand-off.
func NewRedis(addr, password string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Printf("redis client created (addr: %s)", addr)
	return rdb
}
