package database

import (
	"context"
	"courtcert_backend/internal/config"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// InitRedis 未启用时返回 nil，各仓储在没有 Redis 的情况下直接读写数据库
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Println("Redis disabled, falling back to database only")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	log.Println("Redis connection established")
	return rdb, nil
}
