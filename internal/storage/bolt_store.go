package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const tokenBucket = "flow_tokens"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	tokenTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(tokenBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		tokenTTL:        opts.TokenTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordToken stores rec under its flow token. SentAt defaults to now and
// ExpiresAt to SentAt plus the configured TTL.
func (b *boltStore) RecordToken(rec TokenRecord) error {
	if b == nil || b.db == nil {
		return nil
	}
	rec.FlowToken = strings.TrimSpace(rec.FlowToken)
	if rec.FlowToken == "" {
		return ErrEmptyToken
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	if rec.SentAt.IsZero() {
		rec.SentAt = now.UTC()
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.SentAt.Add(b.tokenTTL)
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode token record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}
		return bucket.Put([]byte(rec.FlowToken), value)
	})
}

// LookupToken returns the record for token. Expired or unreadable entries are
// deleted and reported as missing.
func (b *boltStore) LookupToken(token string) (TokenRecord, bool, error) {
	if b == nil || b.db == nil {
		return TokenRecord{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return TokenRecord{}, false, err
	}

	var (
		rec   TokenRecord
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}

		key := []byte(strings.TrimSpace(token))
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		decoded, ok := decodeRecord(value)
		if !ok || !decoded.ExpiresAt.After(now) {
			return bucket.Delete(key)
		}

		rec, found = decoded, true
		return nil
	})
	return rec, found, err
}

// maybeCleanupExpired removes expired tokens on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tokenBucket))
		if bucket == nil {
			return fmt.Errorf("token bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			rec, ok := decodeRecord(v)
			if !ok || !rec.ExpiresAt.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func decodeRecord(value []byte) (TokenRecord, bool) {
	var rec TokenRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return TokenRecord{}, false
	}
	if rec.FlowToken == "" || rec.ExpiresAt.IsZero() {
		return TokenRecord{}, false
	}
	return rec, true
}
