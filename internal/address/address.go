package address

import (
	"strings"
	"time"
)

type Type string

const (
	TypeShipping Type = "shipping"
	TypeBilling  Type = "billing"
)

// Address is a saved postal address. A user has at most one default
// address per Type.
type Address struct {
	ID        int       `json:"addressId"`
	UserID    int       `json:"userId"`
	Label     string    `json:"label"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"addressLine1"`
	Line2     string    `json:"addressLine2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zipCode"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"isDefault"`
	Type      Type      `json:"addressType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SingleLine renders the address the way it is copied onto an order.
func (a Address) SingleLine() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City)
	if region := strings.TrimSpace(a.State + " " + a.ZipCode); region != "" {
		parts = append(parts, region)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}
