// Package storage keeps per-client key-value state (session token, profile,
// language) in a BoltDB file.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	apperrors "secdash/internal/errors"
)

const clientsBucket = "clients"

// Well-known client keys.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyLanguage = "language"
)

// Store is a BoltDB-backed client storage. Each client owns a nested bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens the store at path, creating the file when needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database can serve a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return apperrors.ErrStorageClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(clientsBucket)) == nil {
			return fmt.Errorf("clients bucket is missing")
		}
		return nil
	})
}

// Get returns the value stored under key for clientID.
func (s *Store) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	if err := s.check(ctx, clientID, key); err != nil {
		return "", false, err
	}
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := clientBucket(tx, clientID)
		if bucket == nil {
			return nil
		}
		payload := bucket.Get([]byte(key))
		if payload == nil {
			return nil
		}
		value = string(payload)
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, found, nil
}

// Set stores value under key for clientID.
func (s *Store) Set(ctx context.Context, clientID, key, value string) error {
	if err := s.check(ctx, clientID, key); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(clientsBucket))
		if root == nil {
			return fmt.Errorf("clients bucket is missing")
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(clientID))
		if err != nil {
			return fmt.Errorf("create client bucket: %w", err)
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

// Delete removes keys for clientID. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, clientID string, keys ...string) error {
	if err := s.check(ctx, clientID, "-"); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := clientBucket(tx, clientID)
		if bucket == nil {
			return nil
		}
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// GetJSON decodes the value under key into dst.
func (s *Store) GetJSON(ctx context.Context, clientID, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, clientID, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value as JSON under key.
func (s *Store) SetJSON(ctx context.Context, clientID, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, clientID, key, string(payload))
}

// ClientCount reports how many clients have stored state.
func (s *Store) ClientCount() (int, error) {
	if s == nil || s.db == nil {
		return 0, apperrors.ErrStorageClosed
	}
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(clientsBucket))
		if root == nil {
			return nil
		}
		return root.ForEach(func(_, v []byte) error {
			if v == nil {
				count++
			}
			return nil
		})
	})
	return count, err
}

// Bucket returns a view bound to one client, usable as a language store.
func (s *Store) Bucket(clientID string) *ClientBucket {
	return &ClientBucket{store: s, clientID: clientID}
}

func (s *Store) check(ctx context.Context, clientID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return apperrors.ErrStorageClosed
	}
	if strings.TrimSpace(clientID) == "" {
		return apperrors.ErrClientIDEmpty
	}
	if strings.TrimSpace(key) == "" {
		return apperrors.ErrStorageKeyEmpty
	}
	return nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(clientsBucket)); err != nil {
			return fmt.Errorf("create clients bucket: %w", err)
		}
		return nil
	})
}

func clientBucket(tx *bbolt.Tx, clientID string) *bbolt.Bucket {
	root := tx.Bucket([]byte(clientsBucket))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(clientID))
}

// ClientBucket is the storage of a single client.
type ClientBucket struct {
	store    *Store
	clientID string
}

// Get implements locale.Store.
func (b *ClientBucket) Get(key string) (string, bool, error) {
	return b.store.Get(context.Background(), b.clientID, key)
}

// Set implements locale.Store.
func (b *ClientBucket) Set(key, value string) error {
	return b.store.Set(context.Background(), b.clientID, key, value)
}
