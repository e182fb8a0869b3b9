package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"learnhub/backend/config"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerOrAdmin(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}
	app := fiber.New()
	app.Get("/users/:userId", AuthMiddleware(cfg), OwnerOrAdmin("userId"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/admin", AuthMiddleware(cfg), AdminMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	userToken, err := utils.GenerateJWTToken(7, "user", cfg)
	require.NoError(t, err)
	adminToken, err := utils.GenerateJWTToken(1, "admin", cfg)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/users/7", "", http.StatusUnauthorized},
		{"owner", "/users/7", userToken, http.StatusNoContent},
		{"other user", "/users/8", userToken, http.StatusForbidden},
		{"admin on other user", "/users/8", adminToken, http.StatusNoContent},
		{"bad id", "/users/x", userToken, http.StatusBadRequest},
		{"admin route as user", "/admin", userToken, http.StatusForbidden},
		{"admin route as admin", "/admin", adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
