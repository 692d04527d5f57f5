package user

import (
	"errors"
	"time"

	"user_api/internal/auth"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never exposed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateUserRequest leaves a field unchanged when it is empty.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type SignInResponse struct {
	User *User `json:"user"`
	auth.TokenPair
}

type EventType string

const (
	EventCreated  EventType = "user.created"
	EventUpdated  EventType = "user.updated"
	EventDeleted  EventType = "user.deleted"
	EventSignedIn EventType = "user.signed_in"
)

// UserEvent is published to the user events queue after every successful
// write or sign-in.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SquareCheck struct {
	Sq             uint64 `json:"sq"`
	Root           uint64 `json:"root"`
	PerfectSquare  bool   `json:"perfect_square"`
	SuggestedTrees uint64 `json:"suggested_trees"`
}
