package app

import "glass-shop/internal/core"

// LoginRequest is the input for Login.
type LoginRequest struct {
	Username string
	Password string
}

// RegisterShopRequest is the input for creating a new tenant and its admin.
type RegisterShopRequest struct {
	Shop     core.ShopInput
	Username string
	FullName string
	Password string
}

// ChangePasswordRequest is the input for ChangePassword.
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

// CreateUserRequest is the input for adding a user to the caller's shop.
type CreateUserRequest struct {
	Username string
	FullName string
	Password string
	Role     string // defaults to STAFF
}
