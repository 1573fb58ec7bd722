// Package session holds the authenticated user's state: auth token,
// username, and wallet balance. The state survives across CLI
// invocations in a small SQLite-backed keyed store, the equivalent of
// the browser's local storage, and is cleared in bulk on logout.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one keyed string in the store.
type Entry struct {
	Key   string `gorm:"primarykey;size:64"`
	Value string `gorm:"size:1024"`
}

// TableName returns the table name for Entry.
func (Entry) TableName() string {
	return "session_entries"
}

// Store is a keyed string store backed by SQLite.
type Store struct {
	db *gorm.DB
}

// DefaultStorePath returns the per-user store location,
// ~/.qkart/session.db, creating the directory if needed.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".qkart")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	return filepath.Join(dir, "session.db"), nil
}

// OpenStore opens (or creates) the store at the given path.
// An empty path uses DefaultStorePath. Use ":memory:" for an
// ephemeral store.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultStorePath()
		if err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(key string) (string, error) {
	var e Entry
	if err := s.db.First(&e, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return e.Value, nil
}

// Set writes key to value, inserting or updating as needed.
func (s *Store) Set(key, value string) error {
	e := Entry{Key: key, Value: value}
	if err := s.db.Save(&e).Error; err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry. Used on logout.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}
