package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("checkout: %w", InsufficientStock(7))
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.False(t, errors.Is(wrapped, ErrEmptyCart))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestRespond(t *testing.T) {
	app := fiber.New()
	app.Get("/stock", func(c *fiber.Ctx) error { return Respond(c, InsufficientStock(3)) })
	app.Get("/raw", func(c *fiber.Ctx) error { return Respond(c, errors.New("pq: relation does not exist")) })
	app.Get("/missing", func(c *fiber.Ctx) error { return Respond(c, NotFound("order")) })

	res, err := app.Test(httptest.NewRequest("GET", "/stock", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "insufficient_stock", body["error"])
	assert.EqualValues(t, 3, body["productId"])

	res, err = app.Test(httptest.NewRequest("GET", "/raw", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	body = map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "internal server error", body["message"])

	res, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Quantity int    `validate:"gt=0"`
	}
	require.NoError(t, ValidateStruct(payload{Email: "a@b.co", Quantity: 1}))

	err := ValidateStruct(payload{Email: "nope", Quantity: 0})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "Email must be a valid email")
	assert.Contains(t, err.Error(), "Quantity must be greater than 0")
}
