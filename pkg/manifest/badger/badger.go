// Package badger persists the manifest in an embedded BadgerDB.
//
// Storage Model:
//
//	e:<ContentID>  ->  CBOR(record)
//
// List is a prefix scan followed by an in-memory sort; libraries are small
// enough that a secondary time index is not worth its write cost.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
)

const entryPrefix = "e:"

// Config configures the badger manifest.
type Config struct {
	// DBPath is the database directory. Ignored when InMemory is set.
	DBPath string

	// InMemory keeps the database in RAM. Used by tests.
	InMemory bool

	// BadgerOptions overrides every other setting when non-nil.
	BadgerOptions *badger.Options
}

// record is the stored value. AddedAt is kept as Unix nanoseconds so the
// value round-trips exactly across time zones.
type record struct {
	AddedAt    int64  `cbor:"1,keyasint"`
	Size       int64  `cbor:"2,keyasint"`
	SourceName string `cbor:"3,keyasint,omitempty"`
	Checksum   string `cbor:"4,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("manifest: CBOR encoder initialization failed: " + err.Error())
	}
}

// Manifest implements manifest.Manifest on BadgerDB.
//
// Thread Safety:
// BadgerDB transactions are safe for concurrent use; Commit runs in an
// update transaction so a duplicate check and insert are atomic.
type Manifest struct {
	db *badger.DB
}

// New opens (creating if needed) the database.
func New(ctx context.Context, cfg Config) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	switch {
	case cfg.BadgerOptions != nil:
		opts = *cfg.BadgerOptions
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	default:
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("badger manifest path is required")
		}
		opts = badger.DefaultOptions(cfg.DBPath)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("manifest: opened badger database at %q", cfg.DBPath)
	return &Manifest{db: db}, nil
}

func entryKey(id media.ContentID) []byte {
	return []byte(entryPrefix + string(id))
}

func (m *Manifest) Commit(ctx context.Context, e manifest.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := encMode.Marshal(record{
		AddedAt:    e.AddedAt.UnixNano(),
		Size:       e.Size,
		SourceName: e.SourceName,
		Checksum:   e.Checksum,
	})
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	return m.db.Update(func(txn *badger.Txn) error {
		key := entryKey(e.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("entry %s: %w", e.ID, manifest.ErrEntryExists)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check entry: %w", err)
		}
		return txn.Set(key, value)
	})
}

func (m *Manifest) Remove(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return m.db.Update(func(txn *badger.Txn) error {
		key := entryKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
			}
			return fmt.Errorf("failed to check entry: %w", err)
		}
		return txn.Delete(key)
	})
}

func (m *Manifest) Get(ctx context.Context, id media.ContentID) (manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return manifest.Entry{}, err
	}

	var entry manifest.Entry
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = decodeEntry(id, val)
			return err
		})
	})
	return entry, err
}

func (m *Manifest) List(ctx context.Context) ([]manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []manifest.Entry
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			id := media.ContentID(item.Key()[len(entryPrefix):])
			err := item.Value(func(val []byte) error {
				e, err := decodeEntry(id, val)
				if err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifest.SortNewestFirst(entries)
	return entries, nil
}

func decodeEntry(id media.ContentID, val []byte) (manifest.Entry, error) {
	var r record
	if err := cbor.Unmarshal(val, &r); err != nil {
		return manifest.Entry{}, fmt.Errorf("failed to decode entry %s: %w", id, err)
	}
	return manifest.Entry{
		ID:         id,
		AddedAt:    time.Unix(0, r.AddedAt).UTC(),
		Size:       r.Size,
		SourceName: r.SourceName,
		Checksum:   r.Checksum,
	}, nil
}

func (m *Manifest) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
