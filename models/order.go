package models

import (
	"fmt"
	"strings"
	"time"
)

// Order carries a denormalized snapshot of the customer contact data as
// it was at creation time; later customer edits do not touch it.
//
// The legacy ProductName/ProductQuantity/ProductPrice fields predate
// multi-item orders. When Items is non-empty the items are the source of
// truth for the total and the product summary; the legacy fields only
// drive orders created before multi-item support.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`

	CustomerID      uint     `gorm:"not null;index" json:"customer_id"`
	Customer        Customer `gorm:"foreignKey:CustomerID" json:"customer"`
	CustomerName    string   `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone   string   `gorm:"type:varchar(20);not null" json:"customer_phone"`
	CustomerAddress string   `gorm:"type:text;not null" json:"customer_address"`

	// Legacy single-product fields (pre multi-item orders).
	ProductID       *uint    `gorm:"index" json:"product_id,omitempty"`
	Product         *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName     string   `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductVariant  string   `gorm:"type:varchar(100)" json:"product_variant"`
	ProductQuantity int      `gorm:"not null;default:1" json:"product_quantity"`
	ProductPrice    float64  `gorm:"type:decimal(10,2);not null" json:"product_price"`

	Items  []OrderItem  `gorm:"foreignKey:OrderID" json:"items"`
	Images []OrderImage `gorm:"foreignKey:OrderID" json:"images"`

	OrderNotes string `gorm:"type:text" json:"order_notes"`
	Status     string `gorm:"type:varchar(50);not null;default:'pending'" json:"status"`

	// Courier hand-off state.
	ConsignmentID   *int64     `json:"consignment_id,omitempty"`
	TrackingCode    string     `gorm:"type:varchar(100)" json:"tracking_code"`
	CourierStatus   string     `gorm:"type:varchar(100)" json:"courier_status"`
	SentToCourier   bool       `gorm:"not null;default:false" json:"sent_to_courier"`
	SentToCourierAt *time.Time `json:"sent_to_courier_at,omitempty"`

	DeliveryTrackingNumber string `gorm:"type:varchar(100)" json:"delivery_tracking_number"`
	DeliveryReceiptURL     string `gorm:"type:text" json:"delivery_receipt_url"`
	CancellationReason     string `gorm:"type:text" json:"cancellation_reason"`

	CreatedBy   uint  `gorm:"not null;index" json:"created_by"`
	Creator     User  `gorm:"foreignKey:CreatedBy" json:"creator"`
	ProcessedBy *uint `gorm:"index" json:"processed_by,omitempty"`
	Processor   *User `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Histories []OrderHistory `gorm:"foreignKey:OrderID" json:"histories"`
}

// TotalAmount derives the order total: sum of item subtotals when line
// items exist, otherwise the legacy single-product price times quantity.
// Exactly one representation is used, never both.
func (o *Order) TotalAmount() float64 {
	if len(o.Items) > 0 {
		var total float64
		for _, item := range o.Items {
			total += item.Price * float64(item.Quantity)
		}
		return total
	}
	return o.ProductPrice * float64(o.ProductQuantity)
}

// TotalQuantity sums item quantities, falling back to the legacy field.
func (o *Order) TotalQuantity() int {
	if len(o.Items) > 0 {
		var qty int
		for _, item := range o.Items {
			qty += item.Quantity
		}
		return qty
	}
	return o.ProductQuantity
}

// ItemSummary renders "Shirt x2, Pants x1" for multi-item orders and the
// plain product name for legacy ones.
func (o *Order) ItemSummary() string {
	if len(o.Items) == 0 {
		return o.ProductName
	}
	parts := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

// ImageURLs returns the uploaded evidence image locations.
func (o *Order) ImageURLs() []string {
	urls := make([]string, 0, len(o.Images))
	for _, img := range o.Images {
		urls = append(urls, img.URL)
	}
	return urls
}
