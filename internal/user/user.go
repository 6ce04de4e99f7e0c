package user

import "time"

type User struct {
	ID           int       `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is created together with its user and shares its ID.
type Profile struct {
	UserID      int        `json:"userId"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Bio         string     `json:"bio"`
	Avatar      string     `json:"avatar"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
