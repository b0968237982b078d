package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/fitcoach-backend/internal/data/db"
	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/data/repos"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

// openDatabase returns nil when DB_DRIVER is none.
func openDatabase(log *logger.Logger, cfg Config) (*db.Service, error) {
	if cfg.DB.Driver == DBDriverNone {
		log.Warn("no database configured, generation runs are not recorded")
		return nil, nil
	}
	svc, err := db.Open(log, db.Config{
		Driver:     cfg.DB.Driver,
		SQLitePath: cfg.DB.SQLitePath,
		Host:       cfg.DB.Host,
		Port:       cfg.DB.Port,
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Name:       cfg.DB.Name,
		SSLMode:    cfg.DB.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return svc, nil
}

func wireRepos(theDB *gorm.DB, log *logger.Logger) repos.Repos {
	log.Info("Wiring repos...")
	if theDB == nil {
		return repos.Repos{}
	}
	return repos.New(theDB, log)
}

func wireStore(log *logger.Logger, cfg Config, theDB *gorm.DB, clients Clients) (kv.Store, error) {
	log.Info("Wiring store...", "backend", cfg.KV.Backend)
	switch cfg.KV.Backend {
	case KVBackendSQL:
		if theDB == nil {
			return nil, fmt.Errorf("sql store without a database")
		}
		return kv.NewGormStore(theDB, log), nil
	case KVBackendRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("redis store without a client")
		}
		return kv.NewRedisStore(clients.Redis, cfg.KV.RedisPrefix, log), nil
	case KVBackendMemory:
		log.Warn("memory store: state is lost on restart")
		return kv.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported KV_BACKEND %q", cfg.KV.Backend)
	}
}

// readinessChecks pings whatever the store and run log depend on.
func readinessChecks(dbs *db.Service, clients Clients) map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if dbs != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := dbs.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func dbOrNil(s *db.Service) *gorm.DB {
	if s == nil {
		return nil
	}
	return s.DB()
}
