package core

import (
	"context"
	"time"
)

type User struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Tag        string    `json:"tag"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ProviderID string    `json:"provider_id"` // settlement rail customer id
}

type UserStore interface {
	Create(ctx context.Context, user *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindTag(ctx context.Context, tag string) (*User, error)
	FindProvider(ctx context.Context, customerID string) (*User, error)
	AccountCreated(ctx context.Context, id string) (bool, error)
}
