package category

import (
	"context"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

// Input is the admin create payload. An empty slug is derived from the name.
type Input struct {
	Name        string `json:"categoryName" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// Patch carries optional fields; nil means unchanged.
type Patch struct {
	Name        *string `json:"categoryName,omitempty" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Service provides business logic for categories.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// List returns active categories, or all of them for admins.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) Get(ctx context.Context, id int) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return Category{}, err
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return Category{}, apperr.Validation("slug cannot be derived from %q", in.Name)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.Create(ctx, Category{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		IsActive:    active,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *Service) Update(ctx context.Context, id int, p Patch) (Category, error) {
	if err := apperr.ValidateStruct(p); err != nil {
		return Category{}, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Slug != nil {
		if c.Slug = Slugify(*p.Slug); c.Slug == "" {
			return Category{}, apperr.Validation("invalid slug %q", *p.Slug)
		}
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
