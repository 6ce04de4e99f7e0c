package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
	"github.com/wichananm65/shop-backend/internal/user"
)

type Handler struct {
	service *Service
	policy  user.Policy
}

func NewHandler(service *Service, policy user.Policy) *Handler {
	return &Handler{service: service, policy: policy}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:id<int>", h.getProduct)
	app.Get("/api/v1/products/:id<int>/images", h.getImages)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	admin := user.RequireCapability(h.policy, user.CapManageCatalog)
	app.Get("/api/v1/admin/products", admin, h.getAllProducts)
	app.Post("/api/v1/products", admin, h.createProduct)
	app.Put("/api/v1/products/:id<int>", admin, h.updateProduct)
	app.Patch("/api/v1/products/:id<int>", admin, h.updateProduct)
	app.Delete("/api/v1/products/:id<int>", admin, h.deleteProduct)
	app.Post("/api/v1/products/:id<int>/images", admin, h.uploadImage)
}

// parseFilter reads the catalog query string. Prices are decimal strings.
func parseFilter(c *fiber.Ctx) (Filter, error) {
	var f Filter
	if v := c.Query("category"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return Filter{}, apperr.Validation("category must be a numeric id")
		}
		f.CategoryID = &id
	}
	f.CategorySlug = c.Query("category_slug")
	for key, dst := range map[string]**money.Cents{"price_min": &f.PriceMin, "price_max": &f.PriceMax} {
		if v := c.Query(key); v != "" {
			amount, err := money.Parse(v)
			if err != nil {
				return Filter{}, apperr.Validation("%s: %s", key, err.Error())
			}
			*dst = &amount
		}
	}
	if v := c.Query("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, apperr.Validation("in_stock must be a boolean")
		}
		f.InStock = b
	}
	if v := c.Query("stock_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Filter{}, apperr.Validation("stock_min must be a non-negative integer")
		}
		f.StockMin = &n
	}
	f.Name = c.Query("name")
	f.Material = c.Query("material")
	return f, nil
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	products, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getAllProducts(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	f.IncludeInactive = true
	products, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	p, err := h.service.GetActive(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var payload Input
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	created, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload Patch
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	updated, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) getImages(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	images, err := h.service.ListImages(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(images)
}

// uploadImage takes a multipart form with the picture in field "file".
func (h *Handler) uploadImage(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Respond(c, apperr.Validation("file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Respond(c, err)
	}
	defer f.Close()

	img, err := h.service.AddImage(c.UserContext(), id, f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}
