package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
)

// Reader is the read-only view other packages (cart) need.
type Reader interface {
	GetByID(ctx context.Context, id int) (Product, error)
}

// Input is the admin create payload.
type Input struct {
	CategoryID  *int             `json:"categoryId" validate:"omitempty,gt=0"`
	Name        string           `json:"productName" validate:"required,max=255"`
	Description string           `json:"productDesc"`
	Material    string           `json:"material" validate:"max=100"`
	Size        string           `json:"size" validate:"max=50"`
	WeightGrams *decimal.Decimal `json:"weightGrams"`
	Price       *money.Cents     `json:"productPrice" validate:"required,gte=0"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	IsActive    *bool            `json:"isActive"`
}

// Patch carries optional fields; nil means unchanged.
type Patch struct {
	CategoryID  *int             `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	Name        *string          `json:"productName,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"productDesc,omitempty"`
	Material    *string          `json:"material,omitempty" validate:"omitempty,max=100"`
	Size        *string          `json:"size,omitempty" validate:"omitempty,max=50"`
	WeightGrams *decimal.Decimal `json:"weightGrams,omitempty"`
	Price       *money.Cents     `json:"productPrice,omitempty" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"isActive,omitempty"`
}

type Service struct {
	repo   Repository
	images ImageStore
	now    func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return nil, apperr.Validation("price_min must not exceed price_max")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive hides inactive products from customers.
func (s *Service) GetActive(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func weight(d *decimal.Decimal) (decimal.NullDecimal, error) {
	if d == nil {
		return decimal.NullDecimal{}, nil
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, apperr.Validation("weightGrams must not be negative")
	}
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	w, err := weight(in.WeightGrams)
	if err != nil {
		return Product{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, Product{
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Material:    in.Material,
		Size:        in.Size,
		WeightGrams: w,
		Price:       *in.Price,
		Stock:       *in.Stock,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update writes only the fields present in p.
func (s *Service) Update(ctx context.Context, id int, p Patch) (Product, error) {
	if err := apperr.ValidateStruct(p); err != nil {
		return Product{}, err
	}
	c := Changes{
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Material:    p.Material,
		Size:        p.Size,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}
	if p.WeightGrams != nil {
		w, err := weight(p.WeightGrams)
		if err != nil {
			return Product{}, err
		}
		c.WeightGrams = &w
	}
	if c.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, c, s.now().UTC())
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
