package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("product", 1), fiber.StatusNotFound},
		{apperr.Ambiguous("x-BAT-1", "bad"), fiber.StatusUnprocessableEntity},
		{&apperr.TransitionError{SerialID: 1, From: "sold", To: "defective"}, fiber.StatusConflict},
		{apperr.Conflict("dup"), fiber.StatusConflict},
		{apperr.Invalid("bad"), fiber.StatusBadRequest},
		{apperr.TxFailed("commit", errors.New("boom")), fiber.StatusInternalServerError},
		{fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("batch", 2)), fiber.StatusNotFound},
		{errors.New("other"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestHTTPServerRendersErrorsAndActor(t *testing.T) {
	app, api := NewHTTPServer(logger.NewNop())
	api.Get("/missing", func(c *fiber.Ctx) error {
		return apperr.NotFound("product", 7)
	})
	api.Get("/broken", func(c *fiber.Ctx) error {
		return errors.New("password=secret")
	})
	api.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(auth.GetActor(c.UserContext()))
	})
	api.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "product 7 not found", body["message"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/broken", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "secret")

	req := httptest.NewRequest("GET", "/api/v1/whoami", nil)
	req.Header.Set(auth.ActorHeader, "cashier-3")
	resp, err = app.Test(req)
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "cashier-3", string(raw))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/whoami", nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.Equal(t, auth.SystemActor, string(raw))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
