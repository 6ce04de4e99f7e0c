package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/user"
)

// Handler delegates order operations to the order service.
type Handler struct {
	service *Service
	policy  user.Policy
}

func NewHandler(s *Service, policy user.Policy) *Handler {
	return &Handler{service: s, policy: policy}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getOrders)
	app.Post("/api/v1/orders", h.checkout)
	app.Post("/api/v1/orders/checkout", h.checkout)
	app.Get("/api/v1/orders/:id<int>", h.getOrder)
	app.Post("/api/v1/orders/:id<int>/pay", h.pay)
	app.Post("/api/v1/orders/:id<int>/cancel", h.cancel)
	app.Post("/api/v1/orders/:id<int>/ship", user.RequireCapability(h.policy, user.CapFulfillOrders), h.ship)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	var payload CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return apperr.Respond(c, apperr.Validation("%s", err.Error()))
		}
	}
	o, err := h.service.Checkout(c.UserContext(), userID, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	orders, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, _ := c.ParamsInt("id")
	o, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) pay(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, _ := c.ParamsInt("id")
	o, err := h.service.Pay(c.UserContext(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	id, _ := c.ParamsInt("id")
	o, err := h.service.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) ship(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	o, err := h.service.Ship(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}
