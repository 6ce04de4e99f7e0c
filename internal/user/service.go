package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a customer account. Admins come from EnsureAdmin.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (User, error) {
	email = strings.TrimSpace(email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     fullName,
		Role:         RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// EnsureAdmin makes sure an admin account exists for email. A missing
// account is created with password; an existing one is promoted and keeps
// its password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, apperr.Validation("admin email is required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == RoleAdmin {
			return u, nil
		}
		now := s.now().UTC()
		if err := s.repo.SetRole(ctx, u.ID, RoleAdmin, now); err != nil {
			return User{}, err
		}
		u.Role, u.UpdatedAt = RoleAdmin, now
		return u, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	if len(password) < 8 {
		return User{}, apperr.Validation("admin password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     "Administrator",
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// AccountUpdate carries optional account fields; nil means unchanged.
type AccountUpdate struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"fullName,omitempty" validate:"omitempty,max=255"`
}

func (s *Service) UpdateAccount(ctx context.Context, id int, upd AccountUpdate) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	u.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, u)
}

func (s *Service) GetProfile(ctx context.Context, userID int) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// ProfileUpdate carries optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID int, upd ProfileUpdate) (Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.DateOfBirth != nil {
		if *upd.DateOfBirth == "" {
			p.DateOfBirth = nil
		} else {
			dob, err := time.Parse("2006-01-02", *upd.DateOfBirth)
			if err != nil {
				return Profile{}, apperr.Validation("dateOfBirth must be YYYY-MM-DD")
			}
			p.DateOfBirth = &dob
		}
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.Avatar != nil {
		p.Avatar = *upd.Avatar
	}
	p.UpdatedAt = s.now().UTC()
	return s.repo.UpdateProfile(ctx, p)
}

func (s *Service) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.Validation("current password is incorrect")
	}
	if oldPassword == newPassword {
		return apperr.Validation("new password must differ from the current one")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, userID, string(hashed), s.now().UTC())
}
