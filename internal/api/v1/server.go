package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// ServerInterface lists the operations of public/docs/v1/openapi.yml.
type ServerInterface interface {
	// Liveness probe
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// Run a verification for a member
	// (POST /verify)
	PostVerify(c *fiber.Ctx) error
	// Check whether an email was already used
	// (GET /ledger/check)
	GetLedgerCheck(c *fiber.Ctx, params GetLedgerCheckParams) error
}

// ServerInterfaceWrapper binds request parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return w.Handler.GetPing(c)
}

func (w *ServerInterfaceWrapper) PostVerify(c *fiber.Ctx) error {
	return w.Handler.PostVerify(c)
}

func (w *ServerInterfaceWrapper) GetLedgerCheck(c *fiber.Ctx) error {
	var params GetLedgerCheckParams
	if err := c.QueryParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "bad_request", Message: "Invalid query parameters"})
	}
	return w.Handler.GetLedgerCheck(c, params)
}

// RegisterHandlers mounts the operations below router.
func RegisterHandlers(router fiber.Router, si ServerInterface, middlewares ...fiber.Handler) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	withMiddleware := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, middlewares...), h)
	}

	router.Get("/ping", wrapper.GetPing)
	router.Post("/verify", withMiddleware(wrapper.PostVerify)...)
	router.Get("/ledger/check", withMiddleware(wrapper.GetLedgerCheck)...)
}
