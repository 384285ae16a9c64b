package app

import (
	"time"

	"glass-shop/internal/core"
)

// LoginResult is returned by Login and RegisterShop.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *core.User
	Shop      *core.Shop
}

// PaymentResult is returned by AddPayment.
type PaymentResult struct {
	Invoice *core.Invoice
	Payment *core.Payment
}

// DocumentKind selects the invoice rendering.
type DocumentKind string

const (
	DocumentInvoice      DocumentKind = "invoice"
	DocumentBasicInvoice DocumentKind = "basic-invoice"
	DocumentChallan      DocumentKind = "challan"
)

// Document is a rendered file ready to be streamed to the client.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}
