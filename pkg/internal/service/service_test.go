package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// newTestDB 每个测试一个独立的内存库.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}

	// 内存库只有一个连接，避免连接池拿到空库
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v *T) *T {
	t.Helper()

	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}

	return v
}
