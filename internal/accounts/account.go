// Package accounts stores the people who own projects, keyed by the
// identity-provider subject they sign in with.
package accounts

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Account represents an application user (mapped from identity-provider claims)
type Account struct {
	ID          string    `bson:"_id" json:"id"`
	UID         string    `bson:"uid" json:"uid"` // identity-provider subject
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"displayName,omitempty" json:"displayName"`
	PhotoURL    string    `bson:"photoURL,omitempty" json:"photoURL"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// Profile is the self-reported part of an account, sent on registration.
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
