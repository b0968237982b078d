package kv

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/fitcoach-backend/internal/data/db"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	origin := uuid.NewString()
	other := uuid.NewString()

	_, ok, err := s.Get(ctx, origin, KeyFitnessPlan)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, origin, KeyCheckInDates, `["2024-03-01"]`))
	require.NoError(t, s.Set(ctx, origin, KeyCheckInDates, `["2024-03-01","2024-03-02"]`))
	v, ok, err := s.Get(ctx, origin, KeyCheckInDates)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `["2024-03-01","2024-03-02"]`, v)

	require.NoError(t, s.SetMany(ctx, origin, map[string]string{
		KeyFitnessPlan: `{"dailyCalories":2500}`,
		KeyUserProfile: `{"age":16}`,
	}))
	require.NoError(t, s.Set(ctx, other, KeyUserProfile, `{"age":30}`))

	v, ok, err = s.Get(ctx, origin, KeyUserProfile)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"age":16}`, v)

	require.NoError(t, s.Remove(ctx, origin, KeyFitnessPlan))
	_, ok, err = s.Get(ctx, origin, KeyFitnessPlan)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Clear(ctx, origin))
	for _, k := range Keys {
		_, ok, err := s.Get(ctx, origin, k)
		require.NoError(t, err)
		require.False(t, ok, "key %s survived Clear", k)
	}

	// other origins are untouched
	v, ok, err = s.Get(ctx, other, KeyUserProfile)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"age":30}`, v)

	require.ErrorIs(t, s.Set(ctx, "", KeyUserProfile, "{}"), ErrEmptyOrigin)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestGormStoreSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))
	t.Cleanup(func() { _ = db.Wrap(gdb, logger.Nop()).Close() })

	exerciseStore(t, NewGormStore(gdb, logger.Nop()))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis store tests")
	}
	rdb, err := DialRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	s := NewRedisStore(rdb, "fitcoach:test:"+uuid.NewString()+":", logger.Nop())
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}
