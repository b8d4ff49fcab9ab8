package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/ManuelReschke/VerifyBot/internal/api/v1"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps are the process-scoped objects the HTTP surface needs.
type Deps struct {
	Verifier apiv1.Verifier
	Ledger   apiv1.LedgerChecker
	HTTP     config.HTTPConfig
	// Guilds limits /api/v1/verify to the bot's GUILD_LIST.
	Guilds []string
	// Cache backs the rate limiter when Cache.Host is set.
	Cache config.CacheConfig
}

func InstallRouter(app *fiber.App, deps Deps) {
	// System routes go first so /healthz and /metrics skip the API limiter.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
