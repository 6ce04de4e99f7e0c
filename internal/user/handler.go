package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shop-backend/internal/apperr"
)

type Handler struct {
	service   *Service
	policy    Policy
	jwtSecret string
	tokenTTL  time.Duration
}

func NewHandler(service *Service, policy Policy, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, policy: policy, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/auth/register", h.register)
	app.Post("/api/v1/auth/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/users", RequireCapability(h.policy, CapManageUsers), h.listUsers)
	app.Get("/api/v1/users/me", h.getMe)
	// PUT and PATCH both accept partial payloads
	app.Put("/api/v1/users/me", h.updateMe)
	app.Patch("/api/v1/users/me", h.updateMe)
	app.Get("/api/v1/users/me/profile", h.getProfile)
	app.Put("/api/v1/users/me/profile", h.updateProfile)
	app.Patch("/api/v1/users/me/profile", h.updateProfile)
	app.Post("/api/v1/users/me/change-password", h.changePassword)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}

	created, err := h.service.Register(c.UserContext(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		return apperr.Respond(c, err)
	}
	token, err := IssueToken(created, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "user created",
		"user":    created,
		"token":   token,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}

	u, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	token, err := IssueToken(u, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "login successful",
		"user":    u,
		"token":   token,
	})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) getMe(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	u, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) updateMe(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	var payload AccountUpdate
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}
	u, err := h.service.UpdateAccount(c.UserContext(), userID, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	p, err := h.service.GetProfile(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	var payload ProfileUpdate
	if err := c.BodyParser(&payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.service.UpdateProfile(c.UserContext(), userID, payload)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}
	payload := new(changePasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Validation("%s", err.Error()))
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.service.ChangePassword(c.UserContext(), userID, payload.OldPassword, payload.NewPassword); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}
