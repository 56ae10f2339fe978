package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"match.db", "match.db?_pragma=foreign_keys(1)"},
		{"file:m?mode=memory", "file:m?mode=memory&_pragma=foreign_keys(1)"},
		{"file:m?_pragma=foreign_keys(0)", "file:m?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in))
	}
}

func TestOpen_SQLiteForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "match.db"),
		MaxOpenConns: 3,
		LogLevel:     gormlogger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// Hold all three so each check runs on a different pooled connection
	for i := 0; i < 3; i++ {
		conn, err := sqlDB.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var enabled int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled, "connection %d", i)
	}
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
}
