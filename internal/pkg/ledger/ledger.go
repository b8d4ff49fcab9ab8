package ledger

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrRead is returned when the backing store exists but cannot be loaded.
	ErrRead = errors.New("ledger: read failed")
	// ErrWrite is returned when an append could not be persisted.
	ErrWrite = errors.New("ledger: write failed")
)

// Ledger is the append-only set of emails that already verified a purchase.
type Ledger interface {
	Load(ctx context.Context) error
	Contains(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) error
	List(ctx context.Context) ([]string, error)
}

// NormalizeEmail is the key form used on store and lookup, so addresses that
// differ only in case or surrounding space map to the same entry.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Disabled bypasses the ledger (CHECK_PREVIOUSLY_VERIFIED=false).
type Disabled struct{}

func (Disabled) Load(context.Context) error                     { return nil }
func (Disabled) Contains(context.Context, string) (bool, error) { return false, nil }
func (Disabled) Add(context.Context, string) error              { return nil }
func (Disabled) List(context.Context) ([]string, error)         { return nil, nil }
