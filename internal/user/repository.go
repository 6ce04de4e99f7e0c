package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

var (
	ErrNotFound           = &apperr.Error{Kind: apperr.KindNotFound, Message: "user not found"}
	ErrInvalidCredentials = &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid email or password"}
	ErrEmailExists        = &apperr.Error{Kind: apperr.KindConflict, Message: "email already exists"}
)

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// Create inserts the user and its empty profile.
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	SetPassword(ctx context.Context, id int, hash string, updatedAt time.Time) error
	SetRole(ctx context.Context, id int, role Role, updatedAt time.Time) error
	GetProfile(ctx context.Context, userID int) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) (Profile, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	users    map[int]User
	profiles map[int]Profile
	nextID   int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:    make(map[int]User, len(seed)),
		profiles: make(map[int]Profile, len(seed)),
	}

	maxID := 0
	for _, u := range seed {
		repo.users[u.ID] = u
		repo.profiles[u.ID] = Profile{UserID: u.ID}
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	r.users[u.ID] = u
	r.profiles[u.ID] = Profile{UserID: u.ID, UpdatedAt: u.CreatedAt}
	return u, nil
}

func (r *InMemoryRepository) Update(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	existing.Email = u.Email
	existing.FullName = u.FullName
	existing.UpdatedAt = u.UpdatedAt
	r.users[u.ID] = existing
	return existing, nil
}

func (r *InMemoryRepository) SetPassword(_ context.Context, id int, hash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = updatedAt
	r.users[id] = u
	return nil
}

func (r *InMemoryRepository) SetRole(_ context.Context, id int, role Role, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = updatedAt
	r.users[id] = u
	return nil
}

func (r *InMemoryRepository) GetProfile(_ context.Context, userID int) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) UpdateProfile(_ context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.UserID]; !ok {
		return Profile{}, ErrNotFound
	}
	r.profiles[p.UserID] = p
	return p, nil
}
