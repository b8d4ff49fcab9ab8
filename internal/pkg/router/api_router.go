package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	apiv1 "github.com/ManuelReschke/VerifyBot/internal/api/v1"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/middleware"
)

// limiterRedisDB keeps limiter keys apart from the ledger set in DB 0.
const limiterRedisDB = 2

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiterConfig(h.deps.HTTP, h.deps.Cache)))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(h.deps.Verifier, h.deps.Ledger, h.deps.Guilds)
	apiv1.RegisterHandlers(v1, apiServer, middleware.APIKeyAuthMiddleware(h.deps.HTTP.APIKeyHash))
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func limiterConfig(httpCfg config.HTTPConfig, cacheCfg config.CacheConfig) limiter.Config {
	limit := httpCfg.RateLimit
	if limit <= 0 {
		limit = 30
	}

	cfg := limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(apiv1.ErrorResponse{
				Error:   "too_many_requests",
				Message: "Rate limit exceeded",
			})
		},
	}

	if cacheCfg.Host == "" {
		return cfg
	}
	port, err := strconv.Atoi(cacheCfg.Port)
	if err != nil {
		log.Warnf("[Router] Invalid CACHE_PORT %q, using in-memory rate limiting", cacheCfg.Port)
		return cfg
	}
	cfg.Storage = redis.New(redis.Config{
		Host:     cacheCfg.Host,
		Port:     port,
		Password: cacheCfg.Password,
		Database: limiterRedisDB,
		Reset:    false,
	})
	log.Infof("[Router] Rate limiter uses Redis at %s", cacheCfg.Addr())
	return cfg
}
