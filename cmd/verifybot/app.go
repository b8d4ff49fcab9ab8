package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/discord"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/paypal"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/router"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

// Application owns every process-scoped object and their teardown.
type Application struct {
	cfg     *config.Config
	ledger  ledger.Ledger
	service *verification.Service
	bot     *discord.Bot
	http    *fiber.App

	closers []func() error
}

func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	a := &Application{cfg: cfg}

	l, closeLedger, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.ledger = l
	a.closers = append(a.closers, closeLedger)

	client := paypal.NewClientFromConfig(cfg.PayPal)
	tokens := paypal.NewTokenSource(client)
	// Without a credential no verification can succeed.
	if _, err := tokens.Token(ctx); err != nil {
		a.Close()
		return nil, err
	}

	reconciler := verification.NewReconciler(
		paypal.NewFetcher(client, tokens, cfg.PayPal.MaxPages),
		verification.ReconcilerConfig{ResourceID: cfg.ResourceID},
	)

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		a.Close()
		return nil, err
	}
	granter := discord.NewRoleGranter(session, cfg.ResourceRole)

	a.service = verification.NewService(l, granter, reconciler, cfg.VerifyTimeout)
	a.bot = discord.NewBot(session, a.service, cfg.Discord, cfg.VerifyTimeout)

	if cfg.HTTP.Enabled {
		a.http = newHTTPApp(router.Deps{
			Verifier: a.service,
			Ledger:   l,
			HTTP:     cfg.HTTP,
			Guilds:   cfg.Discord.GuildIDs,
			Cache:    cfg.Cache,
		})
	}
	return a, nil
}

func newHTTPApp(deps router.Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "VerifyBot",
		DisableStartupMessage: true,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app, deps)
	return app
}

// Run starts the bot and the optional HTTP API and blocks until ctx is done
// or a host fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.bot.Start(); err != nil {
		return err
	}
	log.Infof("[App] Bot is running in %d guild(s), resource %s, role %q",
		len(a.cfg.Discord.GuildIDs), a.cfg.ResourceID, a.cfg.ResourceRole)

	errCh := make(chan error, 1)
	if a.http != nil {
		go func() {
			log.Infof("[App] HTTP API listening on %s", a.cfg.HTTP.Addr())
			errCh <- a.http.Listen(a.cfg.HTTP.Addr())
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("[App] Shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Close stops the hosts and releases backend connections.
func (a *Application) Close() error {
	var errs []error
	if a.http != nil {
		errs = append(errs, a.http.Shutdown())
	}
	if a.bot != nil {
		errs = append(errs, a.bot.Stop())
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
