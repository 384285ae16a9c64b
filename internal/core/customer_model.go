package core

import (
	"context"
	"time"
)

// Customer is a per-shop contact record.
type Customer struct {
	ID        int       `json:"id"`
	ShopID    int       `json:"shop_id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	GSTIN     string    `json:"gstin"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerInput struct {
	Name    string
	Mobile  string
	Email   string
	Address string
	GSTIN   string
	State   string
}

// Site is an installation location, optionally tied to a customer.
type Site struct {
	ID            int       `json:"id"`
	ShopID        int       `json:"shop_id"`
	CustomerID    *int      `json:"customer_id,omitempty"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	ContactPerson string    `json:"contact_person"`
	Mobile        string    `json:"mobile"`
	CreatedAt     time.Time `json:"created_at"`
}

type SiteInput struct {
	CustomerID    *int
	Name          string
	Address       string
	ContactPerson string
	Mobile        string
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, shopID int, in CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, shopID, id int) (*Customer, error)
	// ListCustomers matches search against name and mobile; empty search lists all.
	ListCustomers(ctx context.Context, shopID int, search string) ([]Customer, error)
	UpdateCustomer(ctx context.Context, shopID, id int, in CustomerInput) (*Customer, error)
	// DeleteCustomer fails with ErrConflict while quotations, invoices or sites reference it.
	DeleteCustomer(ctx context.Context, shopID, id int) error

	CreateSite(ctx context.Context, shopID int, in SiteInput) (*Site, error)
	GetSite(ctx context.Context, shopID, id int) (*Site, error)
	ListSites(ctx context.Context, shopID int, customerID *int) ([]Site, error)
}
