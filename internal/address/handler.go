package address

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/users/me/addresses", h.list)
	app.Post("/api/v1/users/me/addresses", h.create)
	// registered before :id so "default" is not parsed as an id
	app.Get("/api/v1/users/me/addresses/default", h.getDefault)
	app.Get("/api/v1/users/me/addresses/:id", h.get)
	app.Patch("/api/v1/users/me/addresses/:id", h.update)
	app.Put("/api/v1/users/me/addresses/:id", h.update)
	app.Delete("/api/v1/users/me/addresses/:id", h.delete)
}

func (h *Handler) list(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	addrs, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(addrs)
}

func (h *Handler) get(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid address id"))
	}
	a, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) getDefault(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	a, err := h.service.Default(c.UserContext(), userID, Type(c.Query("type")))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) create(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	var payload Input
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	a, err := h.service.Create(c.UserContext(), userID, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *Handler) update(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid address id"))
	}
	var payload Patch
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	a, err := h.service.Update(c.UserContext(), userID, id, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(a)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return apperr.Respond(c, apperr.Validation("invalid address id"))
	}
	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
