package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build an app with a simple "bootstrap" middleware that injects a
// jwt.Token into locals when the X-User-ID header is provided. This avoids
// pulling in the full jwtware middleware and keeps tests lightweight.
func makeAppWithUserHandler(uHandler *Handler) *fiber.App {
	app := fiber.New()
	uHandler.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	uHandler.RegisterProtectedRoutes(app)
	return app
}

func newTestHandler() (*Handler, *Service) {
	svc := NewService(NewInMemoryRepository(nil))
	return NewHandler(svc, DefaultPolicy, "test-secret", time.Hour), svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, userID, role string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler()
	app := makeAppWithUserHandler(h)

	status, body := doJSON(t, app, "POST", "/api/v1/auth/register", `{"email":"ana@example.com","password":"supersecret","fullName":"Ana"}`, "", "")
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Contains(t, body, `"token"`)
	assert.NotContains(t, body, "supersecret")
	assert.NotContains(t, body, "password")

	status, _ = doJSON(t, app, "POST", "/api/v1/auth/register", `{"email":"ana@example.com","password":"supersecret"}`, "", "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = doJSON(t, app, "POST", "/api/v1/auth/register", `{"email":"not-an-email","password":"short"}`, "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "validation")

	status, body = doJSON(t, app, "POST", "/api/v1/auth/login", `{"email":"ana@example.com","password":"supersecret"}`, "", "")
	require.Equal(t, fiber.StatusOK, status, body)
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, RoleCustomer, resp.User.Role)

	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.EqualValues(t, resp.User.ID, claims["user_id"])
	assert.Equal(t, "customer", claims["role"])

	status, _ = doJSON(t, app, "POST", "/api/v1/auth/login", `{"email":"ana@example.com","password":"wrong-password"}`, "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMeAndProfile(t *testing.T) {
	h, svc := newTestHandler()
	app := makeAppWithUserHandler(h)
	u, err := svc.Register(context.Background(), "j@example.com", "password123", "Jenny")
	require.NoError(t, err)
	id := strconv.Itoa(u.ID)

	status, _ := doJSON(t, app, "GET", "/api/v1/users/me", "", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := doJSON(t, app, "GET", "/api/v1/users/me", "", id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "j@example.com")

	status, body = doJSON(t, app, "PATCH", "/api/v1/users/me", `{"fullName":"Jenny Doe"}`, id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Jenny Doe")
	assert.Contains(t, body, "j@example.com")

	status, body = doJSON(t, app, "PATCH", "/api/v1/users/me/profile", `{"phone":"3001234567","dateOfBirth":"1990-04-01"}`, id, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, "3001234567")
	assert.Contains(t, body, "1990-04-01")

	status, _ = doJSON(t, app, "PATCH", "/api/v1/users/me/profile", `{"dateOfBirth":"01/04/1990"}`, id, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestChangePassword(t *testing.T) {
	h, svc := newTestHandler()
	app := makeAppWithUserHandler(h)
	u, err := svc.Register(context.Background(), "k@example.com", "password123", "")
	require.NoError(t, err)
	id := strconv.Itoa(u.ID)

	status, _ := doJSON(t, app, "POST", "/api/v1/users/me/change-password", `{"oldPassword":"nope","newPassword":"password456"}`, id, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/users/me/change-password", `{"oldPassword":"password123","newPassword":"password456"}`, id, "")
	require.Equal(t, fiber.StatusOK, status)

	_, err = svc.Authenticate(context.Background(), "k@example.com", "password456")
	assert.NoError(t, err)
}

func TestListUsers_RequiresCapability(t *testing.T) {
	h, svc := newTestHandler()
	app := makeAppWithUserHandler(h)
	_, err := svc.Register(context.Background(), "a@example.com", "password123", "")
	require.NoError(t, err)

	status, _ := doJSON(t, app, "GET", "/api/v1/users", "", "1", "customer")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := doJSON(t, app, "GET", "/api/v1/users", "", "1", "admin")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "a@example.com")
}
