package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the local flow-token journal used to correlate
// replies with the send that produced them.

// ErrEmptyToken is returned when a record has no flow token.
var ErrEmptyToken = errors.New("flow token is empty")

// TokenRecord describes one flow message send.
type TokenRecord struct {
	FlowToken string    `json:"flow_token"`
	FlowID    string    `json:"flow_id"`
	Recipient string    `json:"recipient"`
	Mode      string    `json:"mode,omitempty"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store records flow tokens until they expire.
type Store interface {
	Close() error
	RecordToken(rec TokenRecord) error
	LookupToken(token string) (TokenRecord, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TokenTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTokenTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                  { return nil }
func (noopStore) RecordToken(TokenRecord) error                 { return nil }
func (noopStore) LookupToken(string) (TokenRecord, bool, error) { return TokenRecord{}, false, nil }
