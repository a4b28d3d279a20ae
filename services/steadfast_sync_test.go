package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
)

// statusCourier serves per-tracking-code delivery statuses. A code mapped
// to "boom" answers with HTTP 500.
func statusCourier(t *testing.T, statuses map[string]string) *SteadfastService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/status_by_trackingcode/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		code := strings.TrimPrefix(r.URL.Path, "/status_by_trackingcode/")
		status, ok := statuses[code]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if status == "boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(SteadfastStatusResponse{Status: 200, DeliveryStatus: status})
	}))
	t.Cleanup(srv.Close)

	return NewSteadfastService(&SteadfastConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		SecretKey: "test-secret",
	})
}

// sentOrder creates an order and marks it as already handed to the
// courier with the given tracking code, skipping the network path.
func sentOrder(t *testing.T, db *gorm.DB, actorID uint, phone, trackingCode string) *models.Order {
	t.Helper()

	order := createPendingOrder(t, db, actorID, phone)

	now := time.Now().UTC()
	order.SentToCourier = true
	order.SentToCourierAt = &now
	order.TrackingCode = trackingCode
	order.CourierStatus = "in_review"
	order.Status = OrderStatusDeliverySubmitted
	if err := db.Save(order).Error; err != nil {
		t.Fatalf("failed to mark order as sent: %v", err)
	}
	return order
}

func TestSyncDeliveredCompletesOrder(t *testing.T) {
	db, user := setupTestDB(t)
	courier := statusCourier(t, map[string]string{"TRK1": courierStatusDelivered})
	sync := NewSteadfastSyncService(db, courier, user.ID)

	order := sentOrder(t, db, user.ID, "01712345678", "TRK1")

	assert.NoError(t, sync.SyncOrderStatuses())

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusCompleted, reloaded.Status)
	assert.Equal(t, courierStatusDelivered, reloaded.CourierStatus)
	assert.NotNil(t, reloaded.CompletedAt)

	var history models.OrderHistory
	err := db.Where("order_id = ? AND new_status = ?", order.ID, OrderStatusCompleted).First(&history).Error
	assert.NoError(t, err)
	assert.Equal(t, user.ID, history.ChangedBy)
	assert.Contains(t, history.Comment, courierStatusDelivered)
	if assert.NotNil(t, history.PreviousStatus) {
		assert.Equal(t, OrderStatusDeliverySubmitted, *history.PreviousStatus)
	}
}

func TestSyncCancelledCancelsOrder(t *testing.T) {
	db, user := setupTestDB(t)
	courier := statusCourier(t, map[string]string{"TRK2": courierStatusCancelled})
	sync := NewSteadfastSyncService(db, courier, user.ID)

	order := sentOrder(t, db, user.ID, "01712345678", "TRK2")

	assert.NoError(t, sync.SyncOrderStatuses())

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusCancelled, reloaded.Status)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestSyncStatusStringOnlyUpdate(t *testing.T) {
	db, user := setupTestDB(t)
	courier := statusCourier(t, map[string]string{"TRK3": "in_review"})
	sync := NewSteadfastSyncService(db, courier, user.ID)

	order := sentOrder(t, db, user.ID, "01712345678", "TRK3")

	assert.NoError(t, sync.SyncOrderStatuses())

	// Courier status refreshed; no transition, no new history row.
	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusDeliverySubmitted, reloaded.Status)
	assert.Equal(t, "in_review", reloaded.CourierStatus)

	var count int64
	assert.NoError(t, db.Model(&models.OrderHistory{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSyncFailureIsolation(t *testing.T) {
	db, user := setupTestDB(t)
	courier := statusCourier(t, map[string]string{
		"BAD":  "boom",
		"GOOD": courierStatusDelivered,
	})
	sync := NewSteadfastSyncService(db, courier, user.ID)

	broken := sentOrder(t, db, user.ID, "01712345678", "BAD")
	healthy := sentOrder(t, db, user.ID, "01898765432", "GOOD")

	// A provider failure on one order must not stop the pass.
	assert.NoError(t, sync.SyncOrderStatuses())

	var stillSubmitted models.Order
	assert.NoError(t, db.First(&stillSubmitted, broken.ID).Error)
	assert.Equal(t, OrderStatusDeliverySubmitted, stillSubmitted.Status)

	var completed models.Order
	assert.NoError(t, db.First(&completed, healthy.ID).Error)
	assert.Equal(t, OrderStatusCompleted, completed.Status)
}

func TestSyncSkipsTerminalAndUnsentOrders(t *testing.T) {
	db, user := setupTestDB(t)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(SteadfastStatusResponse{Status: 200, DeliveryStatus: "in_review"})
	}))
	t.Cleanup(srv.Close)
	courier := NewSteadfastService(&SteadfastConfig{BaseURL: srv.URL, APIKey: "k", SecretKey: "s"})
	sync := NewSteadfastSyncService(db, courier, user.ID)

	// Never handed off.
	createPendingOrder(t, db, user.ID, "01712345678")

	// Already terminal.
	done := sentOrder(t, db, user.ID, "01898765432", "DONE")
	done.Status = OrderStatusCompleted
	assert.NoError(t, db.Save(done).Error)

	assert.NoError(t, sync.SyncOrderStatuses())
	assert.Equal(t, 0, calls)
}

func TestSyncStartStop(t *testing.T) {
	db, user := setupTestDB(t)
	courier := statusCourier(t, map[string]string{})
	sync := NewSteadfastSyncService(db, courier, user.ID)
	sync.Interval = time.Hour

	sync.Start()
	sync.Stop()
}
