// Package sqlite implements the item store on an embedded SQLite database.
package sqlite

import (
	"context"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/and161185/shoplist/internal/migrate"
)

// Open opens (creating if needed) the database file at path, limits it to a
// single connection and applies pending migrations.
func Open(ctx context.Context, path string) (*gorm.DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"

	gormDB, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if err := migrate.Apply(ctx, sqlDB, migrate.SQLite); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Migrations may hold a dedicated connection; cap the pool afterwards.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return gormDB, nil
}
