// Package archive keeps the journal of catalog exports in a bbolt database.
// Every successful save-to-file run is recorded with its file name, instant
// and entity counts, so operators can audit what was dumped and when.
package archive

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const backupBucket = "backups"

// BackupRecord describes one completed export.
type BackupRecord struct {
	File      string         `json:"file"`
	CreatedAt time.Time      `json:"created_at"`
	Entities  map[string]int `json:"entities"`
}

// Store wraps the bbolt database holding the backup journal.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the journal database and ensures its bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(backupBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", backupBucket, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one export record, keyed by its instant.
func (s *Store) Record(record BackupRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal backup record: %w", err)
	}
	key := record.CreatedAt.UTC().Format(time.RFC3339Nano)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(backupBucket))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", backupBucket)
		}
		return b.Put([]byte(key), data)
	})
}

// List returns every recorded export in key order.
func (s *Store) List() ([]BackupRecord, error) {
	var records []BackupRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(backupBucket))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", backupBucket)
		}
		return b.ForEach(func(k, v []byte) error {
			var record BackupRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", k, err)
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}
