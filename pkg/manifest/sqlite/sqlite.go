// Package sqlite persists the manifest in a SQLite database through GORM,
// using the pure-Go glebarez driver so no cgo toolchain is needed.
//
// The table keeps the layout of the photo library it replaces:
//
//	images(image_id TEXT PRIMARY KEY, added_date INTEGER, ...)
//
// where added_date is Unix milliseconds, so existing libraries can be opened
// directly.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// image is the GORM model for one manifest row.
type image struct {
	ImageID    string `gorm:"column:image_id;primaryKey"`
	AddedDate  int64  `gorm:"column:added_date;not null;index"`
	Size       int64  `gorm:"column:size;not null;default:0"`
	SourceName string `gorm:"column:source_name"`
	Checksum   string `gorm:"column:checksum"`
}

func (image) TableName() string {
	return "images"
}

// Config configures the SQLite manifest.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string
}

// Manifest implements manifest.Manifest on SQLite.
type Manifest struct {
	db *gorm.DB
}

// New opens the database and migrates the schema.
func New(ctx context.Context, cfg Config) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite manifest path is required")
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite connection: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&image{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate manifest schema: %w", err)
	}

	logger.Debug("manifest: opened sqlite database at %q", cfg.Path)
	return &Manifest{db: db}, nil
}

func (m *Manifest) Commit(ctx context.Context, e manifest.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := image{
		ImageID:    string(e.ID),
		AddedDate:  e.AddedAt.UnixMilli(),
		Size:       e.Size,
		SourceName: e.SourceName,
		Checksum:   e.Checksum,
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&image{}).Where("image_id = ?", row.ImageID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check entry: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("entry %s: %w", e.ID, manifest.ErrEntryExists)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
		return nil
	})
}

func (m *Manifest) Remove(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result := m.db.WithContext(ctx).Where("image_id = ?", string(id)).Delete(&image{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
	}
	return nil
}

func (m *Manifest) Get(ctx context.Context, id media.ContentID) (manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return manifest.Entry{}, err
	}

	var row image
	err := m.db.WithContext(ctx).Where("image_id = ?", string(id)).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return manifest.Entry{}, fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
		}
		return manifest.Entry{}, fmt.Errorf("failed to load entry: %w", err)
	}
	return row.entry(), nil
}

func (m *Manifest) List(ctx context.Context) ([]manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []image
	err := m.db.WithContext(ctx).Order("added_date DESC").Order("image_id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]manifest.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

func (row image) entry() manifest.Entry {
	return manifest.Entry{
		ID:         media.ContentID(row.ImageID),
		AddedAt:    time.UnixMilli(row.AddedDate).UTC(),
		Size:       row.Size,
		SourceName: row.SourceName,
		Checksum:   row.Checksum,
	}
}

func (m *Manifest) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
