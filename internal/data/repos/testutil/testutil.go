package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/officechat-backend/internal/data/db"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	dbSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a private in-memory sqlite database with every table migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	// one connection keeps concurrent writers from hitting SQLITE_LOCKED
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// Redis starts a miniredis server and returns it with a connected client.
func Redis(tb testing.TB) (*miniredis.Miniredis, *goredis.Client) {
	tb.Helper()
	mr := miniredis.RunT(tb)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}
