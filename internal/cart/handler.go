package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/user"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Patch("/api/v1/cart/items/:productId<int>", h.updateItem)
	app.Delete("/api/v1/cart/items/:productId<int>", h.removeItem)
	app.Delete("/api/v1/cart/clear", h.clear)
}

type addItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	cart, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}
	cart, err := h.service.AddItem(c.UserContext(), userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	productID, _ := c.ParamsInt("productId")
	payload := new(updateItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}
	cart, err := h.service.UpdateItem(c.UserContext(), userID, productID, payload.Quantity)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	productID, _ := c.ParamsInt("productId")
	cart, err := h.service.RemoveItem(c.UserContext(), userID, productID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
