package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newProtectedApp(t *testing.T, key string) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", APIKeyAuthMiddleware(string(hash)), func(c *fiber.Ctx) error {
		assert.NotNil(t, c.Locals(KeyAPIClient))
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	app := newProtectedApp(t, "secret-key")

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing key", "", "", fiber.StatusUnauthorized},
		{"x-api-key", "X-API-Key", "secret-key", fiber.StatusNoContent},
		{"bearer", "Authorization", "Bearer secret-key", fiber.StatusNoContent},
		{"bearer lowercase", "Authorization", "bearer secret-key", fiber.StatusNoContent},
		{"wrong key", "X-API-Key", "other", fiber.StatusUnauthorized},
		{"basic auth ignored", "Authorization", "Basic secret-key", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey("operator")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("operator")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("other")))
}
