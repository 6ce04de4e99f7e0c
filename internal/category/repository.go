package category

import (
	"context"
	"sort"
	"sync"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

var (
	ErrNotFound   = &apperr.Error{Kind: apperr.KindNotFound, Message: "category not found"}
	ErrSlugExists = &apperr.Error{Kind: apperr.KindConflict, Message: "category slug already exists"}
)

// Repository provides access to category rows.
type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	GetByID(ctx context.Context, id int) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id int) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int]Category
	nextID int
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{data: make(map[int]Category, len(seed)), nextID: 1}
	for _, c := range seed {
		r.data[c.ID] = c
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, includeInactive bool) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, 0, len(r.data))
	for _, c := range r.data {
		if c.IsActive || includeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.data[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) slugTaken(slug string, except int) bool {
	for id, c := range r.data {
		if id != except && c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(c.Slug, 0) {
		return Category{}, ErrSlugExists
	}
	c.ID = r.nextID
	r.nextID++
	r.data[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[c.ID]; !ok {
		return Category{}, ErrNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return Category{}, ErrSlugExists
	}
	r.data[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
