package address

import (
	"context"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

const defaultCountry = "Colombia"

// Input is the create payload. Update uses Patch.
type Input struct {
	Label     string `json:"label" validate:"max=50"`
	FullName  string `json:"fullName" validate:"required,max=255"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Line1     string `json:"addressLine1" validate:"required,max=255"`
	Line2     string `json:"addressLine2" validate:"max=255"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"max=100"`
	ZipCode   string `json:"zipCode" validate:"max=20"`
	Country   string `json:"country" validate:"max=100"`
	IsDefault bool   `json:"isDefault"`
	Type      Type   `json:"addressType" validate:"omitempty,oneof=shipping billing"`
}

// Patch carries optional fields; nil means unchanged.
type Patch struct {
	Label     *string `json:"label,omitempty" validate:"omitempty,max=50"`
	FullName  *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=1,max=20"`
	Line1     *string `json:"addressLine1,omitempty" validate:"omitempty,min=1,max=255"`
	Line2     *string `json:"addressLine2,omitempty" validate:"omitempty,max=255"`
	City      *string `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	State     *string `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode   *string `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	Country   *string `json:"country,omitempty" validate:"omitempty,max=100"`
	IsDefault *bool   `json:"isDefault,omitempty"`
	Type      *Type   `json:"addressType,omitempty" validate:"omitempty,oneof=shipping billing"`
}

// Resolver is what checkout needs to turn an address id into shipping data.
type Resolver interface {
	Get(ctx context.Context, userID, id int) (Address, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID int) ([]Address, error) {
	if userID <= 0 {
		return nil, apperr.ErrUnauthorized
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id int) (Address, error) {
	if userID <= 0 || id <= 0 {
		return Address{}, ErrNotFound
	}
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Default(ctx context.Context, userID int, t Type) (Address, error) {
	if t == "" {
		t = TypeShipping
	}
	if t != TypeShipping && t != TypeBilling {
		return Address{}, apperr.Validation("unknown address type %q", t)
	}
	return s.repo.Default(ctx, userID, t)
}

func (s *Service) Create(ctx context.Context, userID int, in Input) (Address, error) {
	if userID <= 0 {
		return Address{}, apperr.ErrUnauthorized
	}
	if err := apperr.ValidateStruct(in); err != nil {
		return Address{}, err
	}
	if in.Type == "" {
		in.Type = TypeShipping
	}
	if in.Country == "" {
		in.Country = defaultCountry
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, Address{
		UserID:    userID,
		Label:     in.Label,
		FullName:  in.FullName,
		Phone:     in.Phone,
		Line1:     in.Line1,
		Line2:     in.Line2,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
		Type:      in.Type,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Update(ctx context.Context, userID, id int, p Patch) (Address, error) {
	if err := apperr.ValidateStruct(p); err != nil {
		return Address{}, err
	}
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return Address{}, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.Label, p.Label)
	set(&a.FullName, p.FullName)
	set(&a.Phone, p.Phone)
	set(&a.Line1, p.Line1)
	set(&a.Line2, p.Line2)
	set(&a.City, p.City)
	set(&a.State, p.State)
	set(&a.ZipCode, p.ZipCode)
	set(&a.Country, p.Country)
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	a.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, userID, id int) error {
	if userID <= 0 || id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}
