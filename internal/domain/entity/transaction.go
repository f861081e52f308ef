package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a placed order
type Transaction struct {
	OrderID    string          `gorm:"size:64;primary_key" json:"order_id"`
	MerchantID string          `gorm:"size:64;not null;index" json:"merchant_id"`
	EaterID    string          `gorm:"size:64;index" json:"eater_id"`
	OrderTime  time.Time       `gorm:"not null;index" json:"order_time"`
	OrderValue decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"order_value"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionItem represents an order line. The same item may appear on several
// lines of one order.
type TransactionItem struct {
	ID       uint            `gorm:"primary_key" json:"id"`
	OrderID  string          `gorm:"size:64;not null;index" json:"order_id"`
	ItemID   string          `gorm:"size:64;not null;index" json:"item_id"`
	Quantity int             `gorm:"not null;default:1" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
}

// TableName returns the table name for the TransactionItem model
func (TransactionItem) TableName() string {
	return "transaction_items"
}
