package product

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shop-backend/internal/money"
	"github.com/wichananm65/shop-backend/internal/user"
)

func intPtr(v int) *int { return &v }

func seedCatalog() *InMemoryRepository {
	r := NewInMemoryRepository([]Product{
		{ID: 1, CategoryID: intPtr(10), Name: "Cotton Shirt", Material: "cotton", Price: 1000, Stock: 5, IsActive: true},
		{ID: 2, CategoryID: intPtr(10), Name: "Linen Shirt", Material: "linen", Price: 2000, Stock: 0, IsActive: true},
		{ID: 3, CategoryID: intPtr(20), Name: "Wool Socks", Material: "wool", Price: 500, Stock: 12, IsActive: true},
		{ID: 4, Name: "Retired Hat", Price: 900, Stock: 3, IsActive: false},
	})
	r.CategorySlugs = map[int]string{10: "shirts", 20: "socks"}
	return r
}

func makeAppWithProductHandler(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, []Product) {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	var out []Product
	if res.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res.StatusCode, out
}

func ids(ps []Product) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestGetProducts_Filters(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(seedCatalog()), user.DefaultPolicy))

	cases := []struct {
		query string
		want  []int
	}{
		{"", []int{1, 2, 3}},
		{"?category=10", []int{1, 2}},
		{"?category_slug=socks", []int{3}},
		{"?price_min=10&price_max=20.00", []int{1, 2}},
		{"?in_stock=true", []int{1, 3}},
		{"?stock_min=6", []int{3}},
		{"?name=shirt", []int{1, 2}},
		{"?material=WOOL", []int{3}},
	}
	for _, tc := range cases {
		status, got := get(t, app, "/api/v1/products"+tc.query)
		require.Equal(t, fiber.StatusOK, status, tc.query)
		assert.Equal(t, tc.want, ids(got), tc.query)
	}

	status, _ := get(t, app, "/api/v1/products?price_min=1.001")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = get(t, app, "/api/v1/products?price_min=30&price_max=10")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = get(t, app, "/api/v1/products?category=abc")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGetProduct(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(seedCatalog()), user.DefaultPolicy))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	b, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(b), `"productPrice":"10.00"`)

	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/products/4", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/products/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func send(t *testing.T, app *fiber.App, method, path, body, role string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", role)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestAdminProductCRUD(t *testing.T) {
	repo := seedCatalog()
	app := makeAppWithProductHandler(NewHandler(NewService(repo), user.DefaultPolicy))

	status, _ := send(t, app, "POST", "/api/v1/products", `{"productName":"Cap","productPrice":"12.50","stock":4}`, "customer")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := send(t, app, "POST", "/api/v1/products", `{"productName":"Cap","productPrice":"12.50","stock":4,"weightGrams":"80.5"}`, "admin")
	require.Equal(t, fiber.StatusCreated, status, body)
	var created Product
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, money.Cents(1250), created.Price)
	assert.True(t, created.IsActive)
	assert.True(t, created.WeightGrams.Valid)

	status, body = send(t, app, "POST", "/api/v1/products", `{"productName":"Cap","productPrice":"12.505","stock":4}`, "admin")
	assert.Equal(t, fiber.StatusBadRequest, status, body)

	status, body = send(t, app, "POST", "/api/v1/products", `{"productName":"Cap","stock":-1}`, "admin")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "Price is required")

	path := "/api/v1/products/" + strconv.Itoa(created.ID)
	status, body = send(t, app, "PATCH", path, `{"stock":9,"isActive":false}`, "admin")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, `"stock":9`)
	assert.Contains(t, body, `"productPrice":"12.50"`)

	status, _ = get(t, app, path)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, all := get(t, app, "/api/v1/products")
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, ids(all), created.ID)

	status, _ = send(t, app, "DELETE", path, "", "admin")
	assert.Equal(t, fiber.StatusNoContent, status)
	_, err := repo.GetByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
