package apiv1

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

// Verifier is implemented by *verification.Service.
type Verifier interface {
	Verify(ctx context.Context, email string, id verification.Identity) (verification.Result, error)
}

type LedgerChecker interface {
	Contains(ctx context.Context, email string) (bool, error)
}

// APIServer implements the ServerInterface
type APIServer struct {
	verifier Verifier
	ledger   LedgerChecker
	guilds   map[string]struct{}
	validate *validator.Validate
}

// NewAPIServer only accepts verification requests for the given guilds,
// the same set the bot registers its command in.
func NewAPIServer(verifier Verifier, l LedgerChecker, guildIDs []string) *APIServer {
	guilds := make(map[string]struct{}, len(guildIDs))
	for _, id := range guildIDs {
		guilds[id] = struct{}{}
	}
	return &APIServer{
		verifier: verifier,
		ledger:   l,
		guilds:   guilds,
		validate: validator.New(),
	}
}

var _ ServerInterface = (*APIServer)(nil)

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// PostVerify runs the same gate as the slash command. Verification results,
// including "no purchase found", are 200; upstream failures are 502.
func (s *APIServer) PostVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "bad_request", Message: "Invalid JSON body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: "validation_failed", Message: err.Error()})
	}
	if _, ok := s.guilds[req.GuildID]; !ok {
		log.Warnf("[API] Verification requested for unconfigured guild %s", req.GuildID)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: "validation_failed", Message: "guild_id is not configured"})
	}

	id := verification.Identity{GuildID: req.GuildID, UserID: req.UserID}
	log.Infof("[API] Verification requested for %s in guild %s", id, id.GuildID)

	res, err := s.verifier.Verify(c.UserContext(), req.Email, id)
	status := fiber.StatusOK
	if err != nil {
		if errors.Is(err, ledger.ErrWrite) {
			log.Errorf("[API] %s was granted the role but the email was not recorded: %v", id, err)
		} else {
			log.Errorf("[API] Verification for %s failed: %v", id, err)
			status = fiber.StatusBadGateway
		}
	}

	return c.Status(status).JSON(VerifyResponse{
		AttemptID:         res.AttemptID,
		Status:            string(res.Status),
		Message:           res.Message(),
		State:             string(res.Outcome.State),
		WindowsSearched:   len(res.Outcome.Windows),
		MatchedResourceID: res.Outcome.MatchedID,
	})
}

// GetLedgerCheck reports whether email is already recorded.
func (s *APIServer) GetLedgerCheck(c *fiber.Ctx, params GetLedgerCheckParams) error {
	email := ledger.NormalizeEmail(params.Email)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "bad_request", Message: "email missing"})
	}

	ok, err := s.ledger.Contains(c.UserContext(), email)
	if err != nil {
		log.Errorf("[API] Ledger lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal_server_error", Message: "Ledger lookup failed"})
	}
	return c.JSON(LedgerCheckResponse{Email: email, Verified: ok})
}
