package user

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/shop-backend/internal/apperr"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Capability names an action that is not available to every user.
type Capability string

const (
	CapManageCatalog Capability = "manage_catalog"
	CapFulfillOrders Capability = "fulfill_orders"
	CapManageUsers   Capability = "manage_users"
)

// Policy is the single place authorization decisions are made.
type Policy interface {
	Allows(role Role, capability Capability) bool
}

// RolePolicy grants each role a fixed set of capabilities.
type RolePolicy map[Role][]Capability

func (p RolePolicy) Allows(role Role, capability Capability) bool {
	for _, c := range p[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// DefaultPolicy gives admins every capability and customers none.
var DefaultPolicy = RolePolicy{
	RoleAdmin: {CapManageCatalog, CapFulfillOrders, CapManageUsers},
}

// RequireCapability rejects requests whose token role lacks capability.
func RequireCapability(p Policy, capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := GetUserIDFromCtx(c); err != nil {
			return apperr.Respond(c, apperr.Unauthorized("unauthorized"))
		}
		if !p.Allows(GetRoleFromCtx(c), capability) {
			return apperr.Respond(c, apperr.Forbidden("missing capability "+string(capability)))
		}
		return c.Next()
	}
}

// IssueToken signs an HS256 token carrying the claims GetUserIDFromCtx and
// GetRoleFromCtx read back.
func IssueToken(u User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    string(u.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")` by the jwt middleware.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

const roleLocal = "role"

// Lookup is the slice of the user store CurrentRole needs.
type Lookup interface {
	GetByID(ctx context.Context, id int) (User, error)
}

// CurrentRole re-reads the caller's role from users on every request so a
// demotion or deletion takes effect before the token expires. It must run
// after the jwt middleware.
func CurrentRole(users Lookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := GetUserIDFromCtx(c)
		if err != nil {
			return apperr.Respond(c, apperr.Unauthorized("unauthorized"))
		}
		u, err := users.GetByID(c.UserContext(), id)
		if errors.Is(err, ErrNotFound) {
			return apperr.Respond(c, apperr.Unauthorized("account no longer exists"))
		}
		if err != nil {
			return apperr.Respond(c, err)
		}
		c.Locals(roleLocal, u.Role)
		return c.Next()
	}
}

// GetRoleFromCtx returns the role CurrentRole loaded, falling back to the
// token claim and then to customer.
func GetRoleFromCtx(c *fiber.Ctx) Role {
	if r, ok := c.Locals(roleLocal).(Role); ok && r.Valid() {
		return r
	}
	claims, ok := claimsFromCtx(c)
	if !ok {
		return RoleCustomer
	}
	if s, ok := claims["role"].(string); ok && Role(s).Valid() {
		return Role(s)
	}
	return RoleCustomer
}
