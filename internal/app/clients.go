package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/officechat-backend/internal/clients/redis"
	"github.com/yungbote/officechat-backend/internal/data/db"
	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime/bus"
)

type Clients struct {
	DB    *db.Service
	Redis *goredis.Client
	Bus   bus.Bus
	Media gcp.MediaHost
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Postgres
	dbService, err := db.NewService(log, db.Config{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Name:     cfg.DB.Name,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("database automigrate: %w", err)
	}

	// Redis
	rdb, err := redis.NewClient(ctx, log, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	eventBus, err := bus.NewRedisBus(log, rdb, bus.Config{
		Channel:      cfg.Redis.Channel,
		ClientBuffer: cfg.Chat.ClientBuffer,
	})
	if err != nil {
		_ = rdb.Close()
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("init chat bus: %w", err)
	}

	// Gcs
	media, err := resolveMediaHost(ctx, log, cfg.Storage)
	if err != nil {
		_ = eventBus.Close()
		_ = rdb.Close()
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("init media host: %w", err)
	}

	return Clients{
		DB:    dbService,
		Redis: rdb,
		Bus:   eventBus,
		Media: media,
	}, nil
}

// Close releases clients in reverse dependency order.
func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if closer, ok := c.Media.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
