package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/utils"
)

// Courier-side delivery status strings we act on.
const (
	courierStatusDelivered = "delivered"
	courierStatusCancelled = "cancelled"
)

// SteadfastSyncService is the reconciliation loop: every interval it
// re-fetches the courier-side status of every in-flight shipment and
// folds the answer back into local order state through the transition
// engine. One bad order never stops a pass.
type SteadfastSyncService struct {
	db      *gorm.DB
	courier *SteadfastService
	orders  *OrderService

	// Actor recorded on reconciliation-driven transitions.
	actorID uint

	Interval time.Duration
	stop     chan struct{}
}

func NewSteadfastSyncService(db *gorm.DB, courier *SteadfastService, actorID uint) *SteadfastSyncService {
	return &SteadfastSyncService{
		db:       db,
		courier:  courier,
		orders:   NewOrderService(db),
		actorID:  actorID,
		Interval: 30 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start launches the loop goroutine.
func (ss *SteadfastSyncService) Start() {
	go ss.run()
	utils.InfoLogger.Println("Steadfast sync service started")
}

// Stop signals the loop to exit between passes. A pass already underway
// runs to completion.
func (ss *SteadfastSyncService) Stop() {
	close(ss.stop)
}

func (ss *SteadfastSyncService) run() {
	ticker := time.NewTicker(ss.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ss.SyncOrderStatuses(); err != nil {
				utils.ErrorLogger.Printf("Error syncing courier statuses: %v", err)
			}
		case <-ss.stop:
			return
		}
	}
}

type syncUpdate struct {
	order     models.Order
	newStatus string
}

// SyncOrderStatuses runs one reconciliation pass. Orders are fetched on a
// session scoped to this pass, courier calls happen outside any
// transaction, and all resulting updates are committed together at the
// end.
func (ss *SteadfastSyncService) SyncOrderStatuses() error {
	session := ss.db.Session(&gorm.Session{NewDB: true})

	var orders []models.Order
	err := session.
		Where("sent_to_courier = ? AND tracking_code <> '' AND status NOT IN ?",
			true, []string{OrderStatusCompleted, OrderStatusCancelled}).
		Find(&orders).Error
	if err != nil {
		return fmt.Errorf("list orders to sync: %w", err)
	}

	updates := make([]syncUpdate, 0, len(orders))
	for _, order := range orders {
		response, err := ss.courier.CheckDeliveryStatus(order.TrackingCode)
		if err != nil {
			utils.ErrorLogger.Printf("Error syncing order %s: %v", order.OrderNumber, err)
			continue
		}
		if response.Status != 200 {
			utils.ErrorLogger.Printf("Courier status check for order %s returned %d", order.OrderNumber, response.Status)
			continue
		}

		order.CourierStatus = response.DeliveryStatus

		var newStatus string
		switch response.DeliveryStatus {
		case courierStatusDelivered:
			newStatus = OrderStatusCompleted
		case courierStatusCancelled:
			newStatus = OrderStatusCancelled
		}
		updates = append(updates, syncUpdate{order: order, newStatus: newStatus})
	}

	err = session.Transaction(func(tx *gorm.DB) error {
		for i := range updates {
			u := &updates[i]
			if u.newStatus == "" {
				// Provider status string changed but the order stays put.
				u.order.UpdatedAt = time.Now().UTC()
				if err := tx.Save(&u.order).Error; err != nil {
					return fmt.Errorf("save order %s: %w", u.order.OrderNumber, err)
				}
				continue
			}

			comment := fmt.Sprintf("Courier reported %s", u.order.CourierStatus)
			if err := ss.orders.updateStatusTx(tx, &u.order, u.newStatus, ss.actorID, comment); err != nil {
				return fmt.Errorf("transition order %s: %w", u.order.OrderNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.Printf("Synced %d orders with courier", len(orders))
	return nil
}
