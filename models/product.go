package models

import "time"

// Product is a catalog entry. StockQuantity is advisory and never
// clamped; IsActive only filters listings, inactive products stay
// referenced by their orders.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Variants      string    `gorm:"type:text" json:"variants"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	BuyingPrice   *float64  `gorm:"type:decimal(10,2)" json:"buying_price,omitempty"`
	SellingPrice  float64   `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	ImageUrls     string    `gorm:"type:text" json:"image_urls"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
