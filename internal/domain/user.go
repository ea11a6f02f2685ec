package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns the full name when known, otherwise the username
func (u *User) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// UserCreate represents user registration data
type UserCreate struct {
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=128"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public representation of a user
type UserView struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Teams    []uuid.UUID `json:"teams"`
}

// NewUserView builds the public representation of a user
func NewUserView(user *User, teams []uuid.UUID) UserView {
	if teams == nil {
		teams = []uuid.UUID{}
	}
	return UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Teams:    teams,
	}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}
