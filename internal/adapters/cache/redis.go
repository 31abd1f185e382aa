package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"gymdesk/internal/config"

	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"
)

// limiterDatabase keeps rate limiter counters apart from cached views
const limiterDatabase = 1

// Connect opens a redis client from config. Returns nil when redis is not
// configured or unreachable; callers fall back to no caching.
func Connect(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		log.Println("⚠️ Redis not configured, membership cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Could not connect to redis at %s: %v", client.Options().Addr, err)
		client.Close()
		return nil
	}

	log.Printf("✅ Redis connected [%s/%d]", client.Options().Addr, cfg.DB)
	return client
}

// LimiterStorage returns fiber storage for the rate limiter on the same
// redis server as client, or nil (in-memory limiter) when client is nil.
// redisstorage.New panics when redis is unreachable, so only call it after
// Connect succeeded.
func LimiterStorage(cfg config.RedisConfig, client *redis.Client) fiber.Storage {
	if client == nil {
		return nil
	}
	database := limiterDatabase
	if cfg.DB == limiterDatabase {
		database = 0
	}
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}
