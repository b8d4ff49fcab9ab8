package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
)

const KeyAPIClient = "API_CLIENT"

// APIKeyAuthMiddleware authenticates requests carrying the operator API key.
// Only the bcrypt hash of the key is configured (API_KEY_HASH).
func APIKeyAuthMiddleware(keyHash string) fiber.Handler {
	hash := []byte(strings.TrimSpace(keyHash))

	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(apiKey)); err != nil {
			log.Warnf("[API] Rejected API key from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}

		c.Locals(KeyAPIClient, c.IP())
		return c.Next()
	}
}

// HashAPIKey returns the value to put into API_KEY_HASH for key.
func HashAPIKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
