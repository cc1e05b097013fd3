// Package models holds the holder's domain types shared by repositories,
// services and the REST layer.
package models

import "time"

// User is a wallet holder account. HashedPassword never leaves the service.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       *string   `json:"full_name"`
	DID            *string   `json:"did"`
	WalletID       *string   `json:"wallet_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Claims is the payload of a session token.
type Claims struct {
	UserID    int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is what a verified session says about its bearer.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (c *Claims) Identity() *Identity {
	return &Identity{UserID: c.UserID, Username: c.Username}
}
