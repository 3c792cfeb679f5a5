package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open bootstraps a SQLite database. dsn may carry a "sqlite://" prefix.
func Open(dsn string) (*gorm.DB, error) {
	for _, prefix := range []string{"sqlite://", "sqlite3://"} {
		dsn = strings.TrimPrefix(dsn, prefix)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// every connection to a private memory database gets its own empty copy
	if privateMemory(dsn) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}
	return db, nil
}

func privateMemory(dsn string) bool {
	memory := strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	return memory && !strings.Contains(dsn, "cache=shared")
}
