package session

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("session")

// BoltBackend stores the session in a single-file bbolt database.
type BoltBackend struct {
	db *bbolt.DB
}

var _ Backend = (*BoltBackend)(nil)

// OpenBoltBackend opens (or creates) the database at path.
func OpenBoltBackend(path string) (*BoltBackend, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *BoltBackend) Commit(_ context.Context, puts map[string][]byte, deletes []string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for k, v := range puts {
			if err := bucket.Put([]byte(k), v); err != nil {
				return fmt.Errorf("put %s: %w", k, err)
			}
		}
		for _, k := range deletes {
			if err := bucket.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
