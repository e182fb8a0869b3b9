package utils

import (
	"net/http/httptest"
	"testing"

	"learnhub/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}
	token, err := GenerateJWTToken(42, "admin", cfg)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		claims, err := ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return err
		}
		assert.Equal(t, uint(42), claims.UserID)
		assert.True(t, claims.IsAdmin())
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	other := &config.Config{JWTSecret: "other"}
	app2 := fiber.New()
	app2.Get("/", func(c *fiber.Ctx) error {
		_, err := ExtractClaimsFromToken(c, other)
		return err
	})
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app2.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
