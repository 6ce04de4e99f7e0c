package product

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
)

var (
	ErrNotFound   = &apperr.Error{Kind: apperr.KindNotFound, Message: "product not found"}
	ErrReferenced = &apperr.Error{Kind: apperr.KindConflict, Message: "product is referenced by orders; deactivate it instead"}
	ErrImageRace  = &apperr.Error{Kind: apperr.KindConflict, Message: "another image was added at the same time; retry the upload"}
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	// Update writes only the columns set in c. Stock in particular is left
	// alone unless c.Stock is set, so catalog edits never overwrite a
	// concurrent checkout decrement.
	Update(ctx context.Context, id int, c Changes, at time.Time) (Product, error)
	Delete(ctx context.Context, id int) error

	ListImages(ctx context.Context, productID int) ([]Image, error)
	// AddImage appends img after the product's existing images and sets
	// its ID and Ord.
	AddImage(ctx context.Context, img Image) (Image, error)
}

// Changes lists the columns an update writes; nil means unchanged.
type Changes struct {
	CategoryID  *int
	Name        *string
	Description *string
	Material    *string
	Size        *string
	WeightGrams *decimal.NullDecimal
	Price       *money.Cents
	Stock       *int
	IsActive    *bool
}

// Empty reports whether c writes nothing.
func (c Changes) Empty() bool {
	return c == Changes{}
}

func (c Changes) apply(p *Product) {
	if c.CategoryID != nil {
		p.CategoryID = c.CategoryID
	}
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Material != nil {
		p.Material = *c.Material
	}
	if c.Size != nil {
		p.Size = *c.Size
	}
	if c.WeightGrams != nil {
		p.WeightGrams = *c.WeightGrams
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
	if c.IsActive != nil {
		p.IsActive = *c.IsActive
	}
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data.
type InMemoryRepository struct {
	mu          sync.RWMutex
	storage     []Product
	nextID      int
	images      []Image
	nextImageID int

	// CategorySlugs resolves Filter.CategorySlug; keyed by category id.
	CategorySlugs map[int]string
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage:     make([]Product, 0, len(seed)),
		nextID:      1,
		nextImageID: 1,
	}

	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) matches(p Product, f Filter) bool {
	if !p.IsActive && !f.IncludeInactive {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.CategorySlug != "" && (p.CategoryID == nil || r.CategorySlugs[*p.CategoryID] != f.CategorySlug) {
		return false
	}
	if f.PriceMin != nil && p.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && p.Price > *f.PriceMax {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.StockMin != nil && p.Stock < *f.StockMin {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Material != "" && !strings.Contains(strings.ToLower(p.Material), strings.ToLower(f.Material)) {
		return false
	}
	return true
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if r.matches(p, f) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, c Changes, at time.Time) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			c.apply(&r.storage[i])
			r.storage[i].UpdatedAt = at
			return r.storage[i], nil
		}
	}
	return Product{}, ErrNotFound
}

// AdjustStock changes the stored stock by delta. The order workflow owns
// stock in production; tests use this to stand in for a committed checkout.
func (r *InMemoryRepository) AdjustStock(id, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Stock += delta
		}
	}
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			kept := r.images[:0]
			for _, img := range r.images {
				if img.ProductID != id {
					kept = append(kept, img)
				}
			}
			r.images = kept
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) ListImages(_ context.Context, productID int) ([]Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Image, 0)
	for _, img := range r.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ord < out[j].Ord })
	return out, nil
}

func (r *InMemoryRepository) AddImage(_ context.Context, img Image) (Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, p := range r.storage {
		if p.ID == img.ProductID {
			found = true
			break
		}
	}
	if !found {
		return Image{}, ErrNotFound
	}
	img.Ord = 1
	for _, other := range r.images {
		if other.ProductID == img.ProductID && other.Ord >= img.Ord {
			img.Ord = other.Ord + 1
		}
	}
	img.ID = r.nextImageID
	r.nextImageID++
	r.images = append(r.images, img)
	return img, nil
}
