package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// SQLiteStore implements Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.SQLite.Path
	if path == "" {
		return errors.Newf("sqlite output enabled but no path configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return dbError(err, "open", "")
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(store.Settings.Debug))
	if err != nil {
		return classifyDBError(err, "open", "")
	}

	store.DB = db
	log.Info("opened sqlite datastore", "path", path)
	return performAutoMigration(db, "sqlite")
}
