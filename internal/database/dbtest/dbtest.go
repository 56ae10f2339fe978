// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"interview_backend/internal/database"
)

var memoryDBSeq atomic.Int64

// Open returns a migrated, private in-memory SQLite database that lives for
// the duration of the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	// One connection keeps every statement on the same in-memory database.
	dsn := fmt.Sprintf("file:matchtest%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	db, err := database.Open(context.Background(), database.Options{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
		LogLevel:     gormlogger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
