package services

import (
	"time"

	"github.com/oms-backend/order-management/models"
)

// Order statuses. An order starts at pending and ends at completed or
// cancelled; the courier hand-off drives pending -> delivery_submitted.
const (
	OrderStatusPending           = "pending"
	OrderStatusDeliverySubmitted = "delivery_submitted"
	OrderStatusOutForDelivery    = "out_for_delivery"
	OrderStatusCompleted         = "completed"
	OrderStatusCancelled         = "cancelled"
)

// allowedTransitions is the explicit edge set of the order lifecycle.
// delivery_submitted -> completed is legal because the courier can report
// a delivery before we ever see out_for_delivery. Terminal states accept
// no edges.
var allowedTransitions = map[string][]string{
	OrderStatusPending:           {OrderStatusDeliverySubmitted, OrderStatusCancelled},
	OrderStatusDeliverySubmitted: {OrderStatusOutForDelivery, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusOutForDelivery:    {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:         {},
	OrderStatusCancelled:         {},
}

// CanTransition reports whether from -> to is an allowed edge.
// Self-transitions are allowed so repeated courier callbacks still land
// in the audit trail.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition mutates the order for an already-validated edge,
// maintaining the timestamps that hang off specific statuses.
func ApplyTransition(o *models.Order, to string, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}

	o.Status = to
	o.UpdatedAt = now

	if to == OrderStatusCompleted && o.CompletedAt == nil {
		t := now
		o.CompletedAt = &t
	}
	return nil
}
