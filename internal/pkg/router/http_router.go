package router

import (
	"context"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	apiv1 "github.com/ManuelReschke/VerifyBot/internal/api/v1"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

// HttpRouter serves health, Prometheus metrics and the API docs.
type HttpRouter struct {
	deps Deps
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	h.registerDocs(app)
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

// registerDocs mounts the swagger UI only for a document that loads and
// validates, since swagger.New panics on a missing file.
func (h HttpRouter) registerDocs(app *fiber.App) {
	path := h.deps.HTTP.DocsPath
	if path == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := apiv1.LoadSwagger(ctx, path); err != nil {
		log.Warnf("[Router] API docs disabled: %v", err)
		return
	}

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: path,
		Path:     "v1",
	}))
}
