package ledger

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/app/repository"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/cache"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/database"
)

// Open builds the configured backend and loads it. The returned close func
// releases any connection the backend opened.
func Open(ctx context.Context, cfg *config.Config) (Ledger, func() error, error) {
	noop := func() error { return nil }

	if !cfg.Ledger.Enabled {
		log.Info("[Ledger] CHECK_PREVIOUSLY_VERIFIED is off, ledger bypassed")
		return Disabled{}, noop, nil
	}

	var (
		l       Ledger
		closeFn = noop
	)

	switch cfg.Ledger.Backend {
	case config.LedgerBackendFile:
		l = NewFileLedger(cfg.Ledger.Path)

	case config.LedgerBackendDatabase:
		db, err := database.SetupDatabase(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		l = NewDatabaseLedger(repository.NewRepositories(db).VerifiedEmail)
		closeFn = func() error { return database.Close(db) }

	case config.LedgerBackendRedis:
		client, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			return nil, noop, err
		}
		l = NewRedisLedger(client, cfg.Ledger.RedisKey)
		closeFn = client.Close

	case config.LedgerBackendS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, noop, err
		}
		l = NewS3Ledger(client, cfg.S3.BucketName, cfg.Ledger.S3Key)

	default:
		return nil, noop, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	if err := l.Load(ctx); err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return l, closeFn, nil
}
