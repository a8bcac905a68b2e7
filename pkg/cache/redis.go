package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

func NewRedisCache() *redisCache {
	c := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisUrl(),
		Username: c.Clients.Redis.Username,
		Password: c.Clients.Redis.Password,
		DB:       c.Clients.Redis.DB,
	})
	return &redisCache{
		client: client,
	}
}

// resolutionKey constructs the cache key for one app/platform resolution
func resolutionKey(appIdentifier string, platform string) string {
	return fmt.Sprintf("update-check:%v:%v", appIdentifier, platform)
}

func (c *redisCache) GetLatestResolution(ctx context.Context, appIdentifier string, platform string) (*api.UpdateCheckResponse, error) {
	buf, err := c.get(ctx, resolutionKey(appIdentifier, platform))
	if err != nil {
		return nil, err
	}

	var response api.UpdateCheckResponse
	err = json.Unmarshal(buf, &response)
	if err != nil {
		return nil, fmt.Errorf("redis unmarshal error: %w", err)
	}
	return &response, nil
}

func (c *redisCache) SetLatestResolution(ctx context.Context, appIdentifier string, platform string, response api.UpdateCheckResponse) error {
	buf, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("unable to marshal for Redis cache: %w", err)
	}

	c.client.Set(ctx, resolutionKey(appIdentifier, platform), string(buf), config.Get().Clients.Redis.Expiration)
	return nil
}

func (c *redisCache) DeleteLatestResolution(ctx context.Context, appIdentifier string, platform string) error {
	cmd := c.client.Del(ctx, resolutionKey(appIdentifier, platform))
	if cmd.Err() != nil {
		return fmt.Errorf("redis delete error: %w", cmd.Err())
	}
	return nil
}

func (c *redisCache) get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Get(ctx, key)
	if errors.Is(cmd.Err(), redis.Nil) {
		return nil, NotFound
	} else if cmd.Err() != nil {
		return nil, fmt.Errorf("redis error: %w", cmd.Err())
	}

	buf, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis bytes conversion error: %w", err)
	}
	return buf, err
}
