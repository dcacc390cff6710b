// Package localstore keeps cart slots in a small sqlite file next to the
// client, one row per slot key.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CartSlot is one persisted cart payload.
type CartSlot struct {
	Key       string `gorm:"primaryKey;column:slot_key"`
	Payload   []byte
	UpdatedAt time.Time
}

// Store implements cart.LocalStore.
type Store struct {
	db *gorm.DB
}

// Open creates the file (and its directory) when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	return New(db)
}

// New migrates the cart_slots table on db.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&CartSlot{}); err != nil {
		return nil, fmt.Errorf("migrate cart_slots: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(key string) ([]byte, error) {
	var slot CartSlot
	err := s.db.First(&slot, "slot_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return slot.Payload, nil
}

func (s *Store) Save(key string, payload []byte) error {
	slot := CartSlot{Key: key, Payload: payload, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
}

func (s *Store) Delete(key string) error {
	return s.db.Where("slot_key = ?", key).Delete(&CartSlot{}).Error
}

// Keys lists every stored slot key.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.Model(&CartSlot{}).Order("slot_key").Pluck("slot_key", &keys).Error
	return keys, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
