package kv

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/fitcoach-backend/internal/domain"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormStore keeps values in the kv_entry table. The table must already
// exist (see db.AutoMigrateAll).
func NewGormStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &gormStore{
		db:  db,
		log: baseLog.With("repo", "KVStore", "backend", "gorm"),
	}
}

func (s *gormStore) Get(ctx context.Context, origin, key string) (string, bool, error) {
	if err := checkOrigin(origin); err != nil {
		return "", false, err
	}
	var rows []types.KVEntry
	if err := s.db.WithContext(ctx).
		Where("origin = ? AND key = ?", origin, key).
		Limit(1).
		Find(&rows).Error; err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *gormStore) Set(ctx context.Context, origin, key, value string) error {
	return s.SetMany(ctx, origin, map[string]string{key: value})
}

func (s *gormStore) SetMany(ctx context.Context, origin string, values map[string]string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]types.KVEntry, 0, len(values))
	for k, v := range values {
		rows = append(rows, types.KVEntry{Origin: origin, Key: k, Value: v, UpdatedAt: now})
	}
	// stable order keeps row locks consistent across concurrent writers
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "origin"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
	})
}

func (s *gormStore) Remove(ctx context.Context, origin, key string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("origin = ? AND key = ?", origin, key).
		Delete(&types.KVEntry{}).Error
}

func (s *gormStore) Clear(ctx context.Context, origin string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("origin = ?", origin).Delete(&types.KVEntry{}).Error
	})
}

// Close is a no-op: the *gorm.DB is owned by the caller.
func (s *gormStore) Close() error { return nil }
