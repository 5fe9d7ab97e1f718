// Package instcache keeps a local copy of the provider's institution
// listing so repeated `bank list` invocations do not refetch a mostly
// static catalogue.
package instcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

// listing is one cached country listing. The payload is the institutions
// slice as JSON; one row per country filter, the empty string keys the
// unfiltered listing.
type listing struct {
	ID        uint   `gorm:"primaryKey"`
	Country   string `gorm:"uniqueIndex"`
	Payload   []byte
	FetchedAt time.Time
}

type Cache struct {
	db *gorm.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not open institution cache at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&listing{}); err != nil {
		return nil, fmt.Errorf("could not migrate institution cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached listing for country if one exists and is younger
// than maxAge. The second return value reports a usable hit.
func (c *Cache) Get(country string, maxAge time.Duration) ([]nordigen.Institution, bool, error) {
	var row listing
	err := c.db.Where("country = ?", country).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("could not query institution cache: %w", err)
	}

	if time.Since(row.FetchedAt) > maxAge {
		return nil, false, nil
	}

	var institutions []nordigen.Institution
	if err := json.Unmarshal(row.Payload, &institutions); err != nil {
		// A cache entry that no longer decodes is worthless; treat as miss.
		return nil, false, nil
	}

	return institutions, true, nil
}

// Put stores the listing for country, replacing any previous entry.
func (c *Cache) Put(country string, institutions []nordigen.Institution) error {
	payload, err := json.Marshal(institutions)
	if err != nil {
		return fmt.Errorf("could not encode institutions: %w", err)
	}

	row := listing{
		Country:   country,
		Payload:   payload,
		FetchedAt: time.Now(),
	}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("country = ?", country).Delete(&listing{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("could not store institution listing: %w", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	db, err := c.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
