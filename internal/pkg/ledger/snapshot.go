package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

// snapshotStore persists the whole serialized set at once.
type snapshotStore interface {
	// Read returns nil data and no error when nothing was stored yet.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Name() string
}

// SnapshotLedger keeps the set in memory, loads it once and rewrites the
// full snapshot after every successful Add.
type SnapshotLedger struct {
	store  snapshotStore
	mu     sync.RWMutex
	emails map[string]struct{}
}

func newSnapshotLedger(store snapshotStore) *SnapshotLedger {
	return &SnapshotLedger{store: store, emails: make(map[string]struct{})}
}

func (l *SnapshotLedger) Load(ctx context.Context) error {
	data, err := l.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRead, l.store.Name(), err)
	}

	emails := make(map[string]struct{})
	if len(data) > 0 {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("%w: %s: decode: %v", ErrRead, l.store.Name(), err)
		}
		for _, e := range list {
			emails[NormalizeEmail(e)] = struct{}{}
		}
	}

	l.mu.Lock()
	l.emails = emails
	l.mu.Unlock()

	log.Infof("[Ledger] Loaded %d verified emails from %s", len(emails), l.store.Name())
	return nil
}

func (l *SnapshotLedger) Contains(_ context.Context, email string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.emails[NormalizeEmail(email)]
	return ok, nil
}

// Add holds the write lock across the flush so snapshots are written in
// order. A failed flush rolls the in-memory entry back.
func (l *SnapshotLedger) Add(ctx context.Context, email string) error {
	key := NormalizeEmail(email)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.emails[key]; ok {
		return nil
	}
	l.emails[key] = struct{}{}

	err := l.flushLocked(ctx)
	metrics.ObserveLedgerWrite(l.store.Name(), err)
	if err != nil {
		delete(l.emails, key)
		return fmt.Errorf("%w: %s: %v", ErrWrite, l.store.Name(), err)
	}
	return nil
}

func (l *SnapshotLedger) List(context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked(), nil
}

func (l *SnapshotLedger) flushLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(l.sortedLocked(), "", "  ")
	if err != nil {
		return err
	}
	return l.store.Write(ctx, data)
}

func (l *SnapshotLedger) sortedLocked() []string {
	out := make([]string, 0, len(l.emails))
	for e := range l.emails {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
