package ledger

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/app/models"
	"github.com/ManuelReschke/VerifyBot/app/repository"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

// DatabaseLedger stores entries in the verified_emails table. The unique
// index only deduplicates rows: a second insert for the same email is
// dropped. It does not stop two instances from both granting the role
// before either row exists.
type DatabaseLedger struct {
	repo repository.VerifiedEmailRepository
}

func NewDatabaseLedger(repo repository.VerifiedEmailRepository) *DatabaseLedger {
	return &DatabaseLedger{repo: repo}
}

func (l *DatabaseLedger) Load(ctx context.Context) error {
	n, err := l.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: database: %v", ErrRead, err)
	}
	log.Infof("[Ledger] Database holds %d verified emails", n)
	return nil
}

func (l *DatabaseLedger) Contains(ctx context.Context, email string) (bool, error) {
	ok, err := l.repo.Exists(ctx, NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("%w: database: %v", ErrRead, err)
	}
	return ok, nil
}

func (l *DatabaseLedger) Add(ctx context.Context, email string) error {
	entry := &models.VerifiedEmail{Email: NormalizeEmail(email)}
	if err := entry.Validate(); err != nil {
		metrics.ObserveLedgerWrite("database", err)
		return fmt.Errorf("%w: database: invalid entry: %v", ErrWrite, err)
	}

	err := l.repo.Create(ctx, entry)
	metrics.ObserveLedgerWrite("database", err)
	if err != nil {
		return fmt.Errorf("%w: database: %v", ErrWrite, err)
	}
	return nil
}

func (l *DatabaseLedger) List(ctx context.Context) ([]string, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: database: %v", ErrRead, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Email)
	}
	return out, nil
}
