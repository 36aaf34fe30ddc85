package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account able to log in. An employee is always backed by one.
type User struct {
	ID           uuid.UUID
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	RoleID       *int64
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerUserID makes a user record its own owner for object checks.
func (u User) OwnerUserID() uuid.UUID {
	return u.ID
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// View is the public JSON shape of a user. The password hash never leaves
// the service.
type View struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	RoleID    *int64    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View renders the public representation.
func (u User) View() View {
	return View{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		RoleID:    u.RoleID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Views renders a slice of users.
func Views(list []User) []View {
	out := make([]View, 0, len(list))
	for _, u := range list {
		out = append(out, u.View())
	}
	return out
}

// CreateInput is the payload accepted when creating an account.
type CreateInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"max=40"`
	LastName  string `json:"last_name" validate:"max=40"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Password  string `json:"password" validate:"required,strongpassword"`
	IsAdmin   bool   `json:"is_admin"`
	RoleID    *int64 `json:"role"`
	IsActive  *bool  `json:"is_active"`
}

// UpdateInput is a partial account update. Nil fields are left untouched.
type UpdateInput struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=150"`
	FirstName *string `json:"first_name" validate:"omitempty,max=40"`
	LastName  *string `json:"last_name" validate:"omitempty,max=40"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Password  *string `json:"password" validate:"omitempty,strongpassword"`
	IsAdmin   *bool   `json:"is_admin"`
	RoleID    *int64  `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

// privileged reports whether the update touches fields only the admin may set.
func (in UpdateInput) privileged() bool {
	return in.IsAdmin != nil || in.RoleID != nil || in.IsActive != nil
}
