package repository

import (
	"context"

	"github.com/grablet/merchant-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OrderLineRow is one line of an order
type OrderLineRow struct {
	OrderID  string
	ItemID   string
	Quantity int
	Price    decimal.Decimal
}

// ItemRepository defines read access to the item catalog
type ItemRepository interface {
	// ListByMerchant returns the merchant's items ordered by item id
	ListByMerchant(ctx context.Context, merchantID string) ([]entity.Item, error)
}

// OrderRepository defines read access to orders and their lines
type OrderRepository interface {
	// ListOrderIDs returns the ids of every order placed with the merchant
	ListOrderIDs(ctx context.Context, merchantID string) ([]string, error)

	// ListOrderLines returns the lines of the given orders
	ListOrderLines(ctx context.Context, orderIDs []string) ([]OrderLineRow, error)
}

// MerchantRepository defines read access to merchants
type MerchantRepository interface {
	GetByID(ctx context.Context, merchantID string) (*entity.Merchant, error)
}
