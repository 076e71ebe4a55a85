package app

import (
	"context"
	"time"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/repository"
	"tab_chat_sync/pkg"
	"tab_chat_sync/pkg/config"
	"tab_chat_sync/pkg/database"
	errprocess "tab_chat_sync/pkg/err"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

// Backend shared medium and change feed every context of a process is built on
type Backend struct {
	KV    repository.KV
	Feed  repository.ChangeFeed
	close func() error
}

// NewBackend connect redis, or fall back to an in-process medium when redis.memory is set
func NewBackend(ctx context.Context, cfg config.RedisConfig, namespace string) (*Backend, error) {
	if cfg.Memory {
		logger.Log.Info("using in-process store")
		return NewMemoryBackend(), nil
	}

	masterName, sentinels := config.GetRedisSetting()
	if cfg.Addr == "" && len(sentinels) == 0 {
		return nil, errprocess.Set("redis.addr is empty and no sentinel is configured; set redis.memory for an in-process store")
	}
	client, err := database.NewRedisClient(ctx, database.RedisConnection{
		Addr:          cfg.Addr,
		MasterName:    masterName,
		SentinelAddrs: sentinels,
		Password:      cfg.Password,
		DB:            cfg.RedisDB,
		RetryCount:    cfg.RetryCount,
		RetryInterval: time.Duration(cfg.RetryInterval) * time.Second,
	})
	if err != nil {
		return nil, errprocess.Wrap("connect redis "+cfg.Addr, err)
	}
	logger.Log.Info("using redis store", zap.String("addr", cfg.Addr), zap.Int("db", cfg.RedisDB))

	return &Backend{
		KV:    repository.NewRedisKV(client),
		Feed:  repository.NewRedisPubSub(client, namespace),
		close: client.Close,
	}, nil
}

// NewMemoryBackend in-process medium and bus
func NewMemoryBackend() *Backend {
	return &Backend{
		KV:   repository.NewMemoryKV(),
		Feed: repository.NewMemoryBus(),
	}
}

// Store store view for one identity profile
func (b *Backend) Store(namespace, profile string) repository.Store {
	return repository.NewStore(b.KV, domain.NewKeys(namespace, profile))
}

// Close release the connection
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// RoomsFromConfig configured rooms without blank or repeated ids, or the defaults
func RoomsFromConfig(rooms []config.RoomConfig) []domain.Room {
	if len(rooms) == 0 {
		return domain.DefaultRooms()
	}
	out := make([]domain.Room, 0, len(rooms))
	seen := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r.ID == "" || pkg.Contains(seen, r.ID) {
			continue
		}
		seen = append(seen, r.ID)
		name := r.Name
		if name == "" {
			name = r.ID
		}
		out = append(out, domain.Room{ID: r.ID, Name: name, Description: r.Description})
	}
	if len(out) == 0 {
		return domain.DefaultRooms()
	}
	return out
}
