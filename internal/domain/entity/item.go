package entity

import (
	"github.com/shopspring/decimal"
)

// Item represents a menu item sold by exactly one merchant
type Item struct {
	ItemID     string          `gorm:"size:64;primary_key" json:"item_id"`
	MerchantID string          `gorm:"size:64;not null;index" json:"merchant_id"`
	ItemName   string          `gorm:"size:255;not null" json:"item_name"`
	ItemPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"item_price"`
	CuisineTag *string         `gorm:"size:100" json:"cuisine_tag,omitempty"`
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}
