package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/user"
)

type Handler struct {
	service *Service
	policy  user.Policy
}

func NewHandler(s *Service, policy user.Policy) *Handler {
	return &Handler{service: s, policy: policy}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.list)
	app.Get("/api/v1/categories/:id<int>", h.get)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	admin := user.RequireCapability(h.policy, user.CapManageCatalog)
	app.Get("/api/v1/admin/categories", admin, h.listAll)
	app.Post("/api/v1/categories", admin, h.create)
	app.Patch("/api/v1/categories/:id<int>", admin, h.update)
	app.Delete("/api/v1/categories/:id<int>", admin, h.delete)
}

func (h *Handler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), false)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) listAll(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), true)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	item, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if !item.IsActive {
		return apperr.Respond(c, ErrNotFound)
	}
	return c.JSON(item)
}

func (h *Handler) create(c *fiber.Ctx) error {
	var payload Input
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	item, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var payload Patch
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	item, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(item)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
