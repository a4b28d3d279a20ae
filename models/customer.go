package models

import "time"

// Customer is deduplicated by phone number: order creation upserts by
// phone and bumps TotalOrders, it never decrements.
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone       string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	TotalOrders int       `gorm:"not null;default:0" json:"total_orders"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Orders []Order `gorm:"foreignKey:CustomerID" json:"-"`
}
