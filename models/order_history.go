package models

import "time"

// OrderHistory is the append-only audit trail: one row per status
// transition, including the creation event where PreviousStatus is nil.
type OrderHistory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	Order          Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ChangedBy      uint      `gorm:"not null" json:"changed_by"`
	ChangedByUser  User      `gorm:"foreignKey:ChangedBy" json:"changed_by_user"`
	PreviousStatus *string   `gorm:"type:varchar(50)" json:"previous_status,omitempty"`
	NewStatus      string    `gorm:"type:varchar(50);not null" json:"new_status"`
	Comment        string    `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}
