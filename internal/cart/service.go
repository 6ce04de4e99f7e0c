package cart

import (
	"context"
	"errors"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/product"
)

// Service implements cart operations on top of the repository and the
// catalog.
type Service struct {
	repo     Repository
	products product.Reader
	now      func() time.Time
}

func NewService(repo Repository, products product.Reader) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID int) (Cart, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// AddItem adds quantity of productID, snapshotting the current catalog
// price when the line is new.
func (s *Service) AddItem(ctx context.Context, userID, productID, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, apperr.Validation("quantity must be greater than 0")
	}
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, product.ErrNotFound) {
		return Cart{}, apperr.NotFound("product")
	}
	if err != nil {
		return Cart{}, err
	}
	if !p.IsActive {
		return Cart{}, apperr.Validation("product %d is not available", productID)
	}

	line := Item{ProductID: p.ID, ProductName: p.Name, Quantity: quantity, UnitPrice: p.Price}
	if err := s.repo.AddItem(ctx, userID, line, s.now().UTC()); err != nil {
		return Cart{}, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *Service) UpdateItem(ctx context.Context, userID, productID, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, apperr.Validation("quantity must be greater than 0")
	}
	if err := s.repo.SetQuantity(ctx, userID, productID, quantity, s.now().UTC()); err != nil {
		return Cart{}, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID int) (Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, productID, s.now().UTC()); err != nil {
		return Cart{}, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}

// Clear empties the cart. Clearing an empty or missing cart succeeds.
func (s *Service) Clear(ctx context.Context, userID int) error {
	return s.repo.Clear(ctx, userID)
}
