package server

import (
	"pipe-rack-manager/internal/config"
	"pipe-rack-manager/internal/eventbus"
	redisbus "pipe-rack-manager/internal/eventbus/redis"
	"pipe-rack-manager/internal/logging"
)

// NewBus returns the Redis bus when REDIS_URL is configured and an
// in-process bus otherwise.
func NewBus(cfg *config.Config, logger *logging.Logger) (eventbus.Bus, error) {
	if cfg.RedisURL == "" {
		return eventbus.NewMemory(), nil
	}
	b, err := redisbus.NewFromURL(cfg.RedisURL, cfg.RedisChannelPrefix, logger.Named("eventbus"))
	if err != nil {
		return nil, err
	}
	return b, nil
}
