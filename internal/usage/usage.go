package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/0xADE/ade-run/internal/entry"
)

const (
	dbFile        = "run.db"
	dbPermissions = 0600

	// DesktopEntryCollection holds usage records of desktop entries
	DesktopEntryCollection = "desktop_entry"
)

// ErrStorage wraps every failure of the underlying store
var ErrStorage = errors.New("usage store")

// Record is the persisted projection of a desktop entry
type Record struct {
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Path   string `json:"path"`
	Weight uint8  `json:"weight"`
}

// Store maps entry identities to usage records using bbolt.
// Each entity kind lives in its own bucket, so kinds never collide.
type Store struct {
	db   *bbolt.DB
	path string
}

// DefaultPath returns the store location inside the user cache directory.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "ade", dbFile), nil
}

// Open creates or opens the store at path. A missing file is a first run,
// not an error: the file and its parent directory are created.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %w", ErrStorage, err)
	}

	db, err := bbolt.Open(path, dbPermissions, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStorage, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(DesktopEntryCollection)); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Get looks up the record stored under key. Absence is reported with ok=false.
func (s *Store) Get(collection string, key []byte) (rec Record, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		val := b.Get(key)
		if val == nil {
			return nil
		}
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("corrupt record %q: %w", key, err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, ok, nil
}

// Put upserts rec under key. The write is a single bbolt transaction,
// so readers see either the old or the new record.
func (s *Store) Put(collection string, key []byte, rec Record) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return putRecord(b, key, rec)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// RecordLaunch bumps the weight of a launched desktop entry and stores the
// entry's current name, icon and path alongside it. The weight saturates
// at the uint8 maximum.
//
// An entry without a record counts as weight 0 and is bumped like any other,
// so its first launch stores 1 rather than 0. A single launch is therefore
// enough to lift an entry over an equally matching one that was never run.
func (s *Store) RecordLaunch(e entry.DesktopEntry) (Record, error) {
	rec := Record{
		Name: e.Name,
		Icon: e.Icon,
		Path: e.SourcePath,
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(DesktopEntryCollection))
		if err != nil {
			return err
		}

		var prev Record
		if val := b.Get(e.Key()); val != nil {
			if err := json.Unmarshal(val, &prev); err != nil {
				// Corrupt records restart from zero
				prev = Record{}
			}
		}
		rec.Weight = bump(prev.Weight)

		return putRecord(b, e.Key(), rec)
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

// Weights returns a snapshot of all weights in collection keyed by identity.
func (s *Store) Weights(collection string) (map[string]uint8, error) {
	weights := make(map[string]uint8)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				// Skip corrupt records
				return nil
			}
			weights[string(k)] = rec.Weight
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return weights, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func putRecord(b *bbolt.Bucket, key []byte, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put(key, buf)
}

func bump(w uint8) uint8 {
	if w == math.MaxUint8 {
		return w
	}
	return w + 1
}
