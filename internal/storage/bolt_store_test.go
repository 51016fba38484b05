package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "tokens.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsAndExpiresTokens(t *testing.T) {
	store := openTestStore(t, Options{TokenTTL: time.Hour, CleanupInterval: time.Hour})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	if _, found, err := store.LookupToken("tok-1"); err != nil || found {
		t.Fatalf("expected unknown token, found=%v err=%v", found, err)
	}

	if err := store.RecordToken(TokenRecord{FlowToken: "tok-1", FlowID: "123", Recipient: "2557", Mode: "draft"}); err != nil {
		t.Fatalf("RecordToken: %v", err)
	}

	rec, found, err := store.LookupToken("tok-1")
	if err != nil || !found {
		t.Fatalf("expected token recorded, found=%v err=%v", found, err)
	}
	if rec.FlowID != "123" || rec.Recipient != "2557" || rec.Mode != "draft" {
		t.Fatalf("unexpected record %#v", rec)
	}
	if !rec.SentAt.Equal(clock) || !rec.ExpiresAt.Equal(clock.Add(time.Hour)) {
		t.Fatalf("unexpected timestamps %#v", rec)
	}

	clock = clock.Add(2 * time.Hour)
	if _, found, err := store.LookupToken("tok-1"); err != nil || found {
		t.Fatalf("expected token to expire, found=%v err=%v", found, err)
	}
}

func TestBoltStoreCleanupRemovesExpired(t *testing.T) {
	store := openTestStore(t, Options{TokenTTL: time.Minute, CleanupInterval: time.Minute})
	clock := time.Now()
	store.now = func() time.Time { return clock }

	if err := store.RecordToken(TokenRecord{FlowToken: "old"}); err != nil {
		t.Fatalf("RecordToken: %v", err)
	}

	clock = clock.Add(5 * time.Minute)
	if err := store.maybeCleanupExpired(clock); err != nil {
		t.Fatalf("maybeCleanupExpired: %v", err)
	}

	if err := store.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(tokenBucket)).Get([]byte("old")); v != nil {
			t.Fatalf("expired token still present")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestBoltStoreRejectsEmptyToken(t *testing.T) {
	store := openTestStore(t, Options{})
	if err := store.RecordToken(TokenRecord{FlowID: "1"}); err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.RecordToken(TokenRecord{FlowToken: "x"}); err != nil {
		t.Fatalf("noop store RecordToken: %v", err)
	}
	if _, found, _ := store.LookupToken("x"); found {
		t.Fatalf("noop store should never find tokens")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}
