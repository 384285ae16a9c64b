package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BillingType string

const (
	BillingGST    BillingType = "GST"
	BillingNonGST BillingType = "NON_GST"
)

type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "DRAFT"
	QuotationConfirmed QuotationStatus = "CONFIRMED"
	QuotationRejected  QuotationStatus = "REJECTED"
)

type PaymentStatus string

const (
	PaymentDue     PaymentStatus = "DUE"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

type PaymentMode string

const (
	PaymentCash         PaymentMode = "CASH"
	PaymentUPI          PaymentMode = "UPI"
	PaymentCard         PaymentMode = "CARD"
	PaymentBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentCheque       PaymentMode = "CHEQUE"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentBankTransfer, PaymentCheque:
		return true
	}
	return false
}

// PolishSpec describes which edges of a cut piece are polished.
type PolishSpec struct {
	Type   string `json:"type"`
	Top    bool   `json:"top"`
	Bottom bool   `json:"bottom"`
	Left   bool   `json:"left"`
	Right  bool   `json:"right"`
	Notes  string `json:"notes,omitempty"`
}

// Edges lists the polished sides in drawing order.
func (p PolishSpec) Edges() []string {
	var edges []string
	if p.Top {
		edges = append(edges, "Top")
	}
	if p.Bottom {
		edges = append(edges, "Bottom")
	}
	if p.Left {
		edges = append(edges, "Left")
	}
	if p.Right {
		edges = append(edges, "Right")
	}
	return edges
}

// LineItem is an immutable snapshot line of a quotation or invoice.
type LineItem struct {
	ID          int             `json:"id"`
	ItemOrder   int             `json:"item_order"`
	GlassType   string          `json:"glass_type"`
	Thickness   string          `json:"thickness"`
	Description string          `json:"description"`
	Height      decimal.Decimal `json:"height"`
	Width       decimal.Decimal `json:"width"`
	SizeUnit    string          `json:"size_unit"`
	Quantity    int             `json:"quantity"`
	Area        decimal.Decimal `json:"area"`
	RatePerSqft decimal.Decimal `json:"rate_per_sqft"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	HSNCode     string          `json:"hsn_code"`
	Polish      *PolishSpec     `json:"polish,omitempty"`
}

// CustomerSnapshot is the billing identity frozen onto a document at creation.
type CustomerSnapshot struct {
	CustomerID *int   `json:"customer_id,omitempty"`
	Name       string `json:"customer_name"`
	Mobile     string `json:"customer_mobile"`
	Address    string `json:"customer_address"`
	GSTIN      string `json:"customer_gstin"`
	State      string `json:"customer_state"`
}

// Charges are the document-level amounts and their computed totals.
type Charges struct {
	BillingType        BillingType      `json:"billing_type"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	InstallationCharge decimal.Decimal  `json:"installation_charge"`
	TransportCharge    decimal.Decimal  `json:"transport_charge"`
	Discount           decimal.Decimal  `json:"discount"`
	GSTPercentage      *decimal.Decimal `json:"gst_percentage,omitempty"`
	CGST               decimal.Decimal  `json:"cgst"`
	SGST               decimal.Decimal  `json:"sgst"`
	IGST               decimal.Decimal  `json:"igst"`
	GSTAmount          decimal.Decimal  `json:"gst_amount"`
	GrandTotal         decimal.Decimal  `json:"grand_total"`
}

type Quotation struct {
	ID              int    `json:"id"`
	ShopID          int    `json:"shop_id"`
	QuotationNumber string `json:"quotation_number"`
	CustomerSnapshot
	Charges
	QuotationDate   time.Time       `json:"quotation_date"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
	Status          QuotationStatus `json:"status"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	ConfirmedBy     *string         `json:"confirmed_by,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	Notes           string          `json:"notes"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	Invoiced        bool            `json:"invoiced"`
	Items           []LineItem      `json:"items"`
}

type Invoice struct {
	ID            int    `json:"id"`
	ShopID        int    `json:"shop_id"`
	InvoiceNumber string `json:"invoice_number"`
	QuotationID   *int   `json:"quotation_id,omitempty"`
	CustomerSnapshot
	Charges
	InvoiceDate   time.Time       `json:"invoice_date"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Notes         string          `json:"notes"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []LineItem      `json:"items"`
}

type Payment struct {
	ID              int             `json:"id"`
	ShopID          int             `json:"shop_id"`
	InvoiceID       int             `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     PaymentMode     `json:"payment_mode"`
	ReferenceNumber string          `json:"reference_number"`
	BankName        string          `json:"bank_name"`
	Notes           string          `json:"notes"`
	PaymentDate     time.Time       `json:"payment_date"`
	ReceivedBy      string          `json:"received_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateQuotationInput either references a stored customer or carries a walk-in identity.
type CreateQuotationInput struct {
	ShopID             int
	CustomerID         *int
	Customer           CustomerInput
	BillingType        BillingType
	QuotationDate      *time.Time
	ValidUntil         *time.Time
	InstallationCharge decimal.Decimal
	TransportCharge    decimal.Decimal
	Discount           decimal.Decimal
	GSTPercentage      *decimal.Decimal
	Notes              string
	Items              []LineItem
	CreatedBy          string
}

type AddPaymentInput struct {
	ShopID          int
	InvoiceID       int
	Amount          decimal.Decimal
	PaymentMode     PaymentMode
	ReferenceNumber string
	BankName        string
	Notes           string
	PaymentDate     *time.Time
	ReceivedBy      string
}

type QuotationService interface {
	CreateQuotation(ctx context.Context, in CreateQuotationInput) (*Quotation, error)
	GetQuotation(ctx context.Context, shopID, id int) (*Quotation, error)
	ListQuotations(ctx context.Context, shopID int, status QuotationStatus) ([]Quotation, error)
	ConfirmQuotation(ctx context.Context, shopID, id int, by string) (*Quotation, error)
	RejectQuotation(ctx context.Context, shopID, id int, reason, by string) (*Quotation, error)
	// DeleteQuotation removes a DRAFT quotation and its items.
	DeleteQuotation(ctx context.Context, shopID, id int, by string) error
}

type InvoiceService interface {
	CreateInvoiceFromQuotation(ctx context.Context, shopID, quotationID int, by string) (*Invoice, error)
	GetInvoice(ctx context.Context, shopID, id int) (*Invoice, error)
	ListInvoices(ctx context.Context, shopID int, status PaymentStatus) ([]Invoice, error)
	AddPayment(ctx context.Context, in AddPaymentInput) (*Invoice, *Payment, error)
	ListPayments(ctx context.Context, shopID, invoiceID int) ([]Payment, error)
}
