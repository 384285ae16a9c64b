package core

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Shop is the tenant root. Every business record carries its id.
type Shop struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	OwnerName   string    `json:"owner_name"`
	Mobile      string    `json:"mobile"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	GSTIN       string    `json:"gstin"`
	State       string    `json:"state"`
	StateCode   string    `json:"state_code"`
	BankDetails string    `json:"bank_details"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is an authenticated member of exactly one shop.
type User struct {
	ID           int       `json:"id"`
	ShopID       int       `json:"shop_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type ShopInput struct {
	Name        string
	OwnerName   string
	Mobile      string
	Email       string
	Address     string
	GSTIN       string
	State       string
	StateCode   string
	BankDetails string
}

// UserInput carries an already-hashed password; hashing belongs to the auth package.
type UserInput struct {
	Username     string
	FullName     string
	PasswordHash string
	Role         Role
}

// ShopService manages tenants and their users.
type ShopService interface {
	// RegisterShop creates the shop and its first ADMIN user in one transaction.
	RegisterShop(ctx context.Context, shop ShopInput, admin UserInput) (*Shop, *User, error)
	GetShop(ctx context.Context, shopID int) (*Shop, error)
	UpdateShop(ctx context.Context, shopID int, in ShopInput) (*Shop, error)

	// GetUserByUsername finds an active user by username (usernames are globally unique).
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUser(ctx context.Context, shopID, userID int) (*User, error)
	CreateUser(ctx context.Context, shopID int, in UserInput) (*User, error)
	ListUsers(ctx context.Context, shopID int) ([]User, error)
	SetUserActive(ctx context.Context, shopID, userID int, active bool) (*User, error)
	// UpdatePasswordHash replaces the stored hash; the caller verifies the old password.
	UpdatePasswordHash(ctx context.Context, userID int, hash string) error
}
