package database

import (
	"fmt"
	"strings"

	"backend-gold/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Dialector picks the gorm driver for a DATABASE_URL. Postgres URLs go to
// the pgx driver, everything else is treated as an sqlite file.
func Dialector(databaseURL string) gorm.Dialector {
	url := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url)
	case strings.HasPrefix(url, sqlitePrefix):
		// sqlite:///./goldapp.db -> ./goldapp.db, sqlite:////var/gold.db -> /var/gold.db
		path := strings.TrimPrefix(strings.TrimPrefix(url, sqlitePrefix), "/")
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path)
	default:
		return sqlite.Open(url)
	}
}

// ConnectDatabase opens the ledger store and creates the schema if needed.
func ConnectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// one writer; also keeps a :memory: database on a single connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Purchase{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
