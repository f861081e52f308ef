package entity

import (
	"time"
)

// Merchant represents a food outlet on the platform
type Merchant struct {
	MerchantID   string    `gorm:"size:64;primary_key" json:"merchant_id"`
	MerchantName string    `gorm:"size:255;not null" json:"merchant_name"`
	CityID       int       `gorm:"index" json:"city_id"`
	JoinDate     time.Time `gorm:"type:date" json:"join_date"`
}

// TableName returns the table name for the Merchant model
func (Merchant) TableName() string {
	return "merchants"
}
