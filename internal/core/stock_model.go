package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockApproved StockStatus = "APPROVED"
	StockPending  StockStatus = "PENDING"
)

type StockAction string

const (
	StockAdd      StockAction = "ADD"
	StockRemove   StockAction = "REMOVE"
	StockTransfer StockAction = "TRANSFER"
)

const DefaultGlassUnit = "MM"

// Glass is a shared catalog entry. It is not shop scoped.
type Glass struct {
	ID        int             `json:"id"`
	Type      string          `json:"glass_type"`
	Thickness decimal.Decimal `json:"thickness"`
	Unit      string          `json:"unit"`
	CreatedAt time.Time       `json:"created_at"`
}

// PriceMaster is the per-shop canonical price for a (type, thickness) pair.
// A pending entry has not been priced yet.
type PriceMaster struct {
	ID            int              `json:"id"`
	ShopID        int              `json:"shop_id"`
	GlassType     string           `json:"glass_type"`
	Thickness     decimal.Decimal  `json:"thickness"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	IsPending     bool             `json:"is_pending"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Stock is the quantity at one (glass, stand, height, width) position of a shop.
// Prices are a denormalized copy of the price master.
type Stock struct {
	ID            int              `json:"id"`
	ShopID        int              `json:"shop_id"`
	GlassID       int              `json:"glass_id"`
	GlassType     string           `json:"glass_type"`
	Thickness     decimal.Decimal  `json:"thickness"`
	Unit          string           `json:"unit"`
	StandNo       int              `json:"stand_no"`
	Height        decimal.Decimal  `json:"height"`
	Width         decimal.Decimal  `json:"width"`
	Quantity      int              `json:"quantity"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Status        StockStatus      `json:"status"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type StockHistory struct {
	ID          int64       `json:"id"`
	ShopID      int         `json:"shop_id"`
	StockID     *int        `json:"stock_id,omitempty"`
	GlassID     int         `json:"glass_id"`
	GlassType   string      `json:"glass_type"`
	Thickness   string      `json:"thickness"`
	Action      StockAction `json:"action"`
	StandNo     int         `json:"stand_no"`
	ToStandNo   *int        `json:"to_stand_no,omitempty"`
	Quantity    int         `json:"quantity"`
	OldQuantity int         `json:"old_quantity"`
	NewQuantity int         `json:"new_quantity"`
	PerformedBy string      `json:"performed_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StockUpdateInput describes one ADD or REMOVE at a stand.
// Thickness is raw user input and is parsed before any write.
type StockUpdateInput struct {
	ShopID      int
	GlassType   string
	Thickness   string
	Unit        string
	StandNo     int
	Height      decimal.Decimal
	Width       decimal.Decimal
	Quantity    int
	Action      StockAction
	PerformedBy string
}

type StockTransferInput struct {
	ShopID      int
	GlassType   string
	Thickness   string
	Unit        string
	FromStandNo int
	ToStandNo   int
	Height      decimal.Decimal
	Width       decimal.Decimal
	Quantity    int
	PerformedBy string
}

type StockTransferResult struct {
	From Stock `json:"from"`
	To   Stock `json:"to"`
}

type StockFilter struct {
	GlassType string
	StandNo   *int
	Status    StockStatus
}

type PriceMasterInput struct {
	GlassType     string
	Thickness     string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	PerformedBy   string
}

// StockService owns stock positions, their history and the glass catalog.
type StockService interface {
	UpdateStock(ctx context.Context, in StockUpdateInput) (*Stock, error)
	TransferStock(ctx context.Context, in StockTransferInput) (*StockTransferResult, error)
	ListStock(ctx context.Context, shopID int, filter StockFilter) ([]Stock, error)
	GetStockHistory(ctx context.Context, shopID int, limit int) ([]StockHistory, error)
	ListGlass(ctx context.Context) ([]Glass, error)
}

// PricingService owns the per-shop price master and its cascade onto stock rows.
type PricingService interface {
	ListPriceMaster(ctx context.Context, shopID int, pendingOnly bool) ([]PriceMaster, error)
	CreatePriceMaster(ctx context.Context, shopID int, in PriceMasterInput) (*PriceMaster, error)
	UpdatePriceMaster(ctx context.Context, shopID, id int, in PriceMasterInput) (*PriceMaster, error)
	DeletePendingPriceMaster(ctx context.Context, shopID, id int, performedBy string) error
}
