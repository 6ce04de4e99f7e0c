package address

import (
	"context"
	"sort"
	"sync"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

var ErrNotFound = &apperr.Error{Kind: apperr.KindNotFound, Message: "address not found"}

type Repository interface {
	List(ctx context.Context, userID int) ([]Address, error)
	Get(ctx context.Context, userID, id int) (Address, error)
	// Default returns the user's default address of type t.
	Default(ctx context.Context, userID int, t Type) (Address, error)
	// Create and Update clear the previous default of the same type when
	// the saved address is marked default.
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, userID, id int) error
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu     sync.Mutex
	data   map[int]Address
	nextID int
}

func NewInMemoryRepository(seed []Address) *InMemoryRepository {
	r := &InMemoryRepository{data: make(map[int]Address, len(seed)), nextID: 1}
	for _, a := range seed {
		r.data[a.ID] = a
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Address, 0)
	for _, a := range r.data {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, id int) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.data[id]
	if !ok || a.UserID != userID {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) Default(_ context.Context, userID int, t Type) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.data {
		if a.UserID == userID && a.Type == t && a.IsDefault {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) clearDefault(a Address) {
	for id, other := range r.data {
		if id != a.ID && other.UserID == a.UserID && other.Type == a.Type && other.IsDefault {
			other.IsDefault = false
			r.data[id] = other
		}
	}
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextID
	r.nextID++
	if a.IsDefault {
		r.clearDefault(a)
	}
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[a.ID]
	if !ok || existing.UserID != a.UserID {
		return Address{}, ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	if a.IsDefault {
		r.clearDefault(a)
	}
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.data[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
