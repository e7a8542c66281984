package database

import (
	"context"

	"doc-insight-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// NewRedis 建立 Redis 连接并返回客户端。
func NewRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
