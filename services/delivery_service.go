package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/utils"
)

// MaxBulkHandOffSize caps one bulk hand-off call.
const MaxBulkHandOffSize = 50

// Bangladesh mobile number: 01 followed by nine digits.
var recipientPhonePattern = regexp.MustCompile(`^01\d{9}$`)

// DeliveryService maps orders onto courier shipments and folds the
// courier's answers back into order state through the transition engine.
type DeliveryService struct {
	db      *gorm.DB
	courier *SteadfastService
	orders  *OrderService

	// Pause between successive provider calls in a bulk run, to stay
	// under the courier's rate limit.
	BulkDelay time.Duration
}

func NewDeliveryService(db *gorm.DB, courier *SteadfastService) *DeliveryService {
	return &DeliveryService{
		db:        db,
		courier:   courier,
		orders:    NewOrderService(db),
		BulkDelay: time.Second,
	}
}

// HandOffRequest is one order's courier submission.
type HandOffRequest struct {
	OrderID          uint    `json:"order_id"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CodAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note"`
	AlternativePhone string  `json:"alternative_phone"`
	RecipientEmail   string  `json:"recipient_email"`
	DeliveryType     int     `json:"delivery_type"`
}

// ValidateRecipient checks the recipient fields locally. It runs before
// any network call; a failure here has no side effects. Length limits
// count characters, not bytes, so Bangla names and addresses measure
// the same as Latin ones.
func ValidateRecipient(name, phone, address string, codAmount float64) error {
	if name == "" || utf8.RuneCountInString(name) > 100 {
		return newValidationError("recipient name is required and must be within 100 characters")
	}
	if !recipientPhonePattern.MatchString(phone) {
		return newValidationError("phone number must be 11 digits starting with 01")
	}
	if address == "" || utf8.RuneCountInString(address) > 250 {
		return newValidationError("address is required and must be within 250 characters")
	}
	if codAmount < 0 {
		return newValidationError("COD amount cannot be negative")
	}
	return nil
}

// SendOrder hands one order to the courier. An order already sent is
// rejected before any network call. On a 200 response the consignment
// fields are persisted and the order moves to delivery_submitted through
// the transition engine; on any other response nothing is mutated.
func (ds *DeliveryService) SendOrder(req HandOffRequest, actorID uint) (*models.Order, error) {
	if err := ValidateRecipient(req.RecipientName, req.RecipientPhone, req.RecipientAddress, req.CodAmount); err != nil {
		return nil, err
	}

	var order models.Order
	err := ds.db.Preload("Items").First(&order, req.OrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	if order.SentToCourier {
		return nil, ErrAlreadySent
	}

	totalLot := len(order.Items)
	if totalLot == 0 {
		totalLot = 1
	}

	response, err := ds.courier.CreateOrder(&SteadfastOrderRequest{
		Invoice:          order.OrderNumber,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		CodAmount:        req.CodAmount,
		Note:             req.Note,
		AlternativePhone: req.AlternativePhone,
		RecipientEmail:   req.RecipientEmail,
		ItemDescription:  order.ItemSummary(),
		TotalLot:         totalLot,
		DeliveryType:     req.DeliveryType,
	})
	if err != nil {
		return nil, err
	}

	if response.Status != 200 || response.Consignment == nil {
		return nil, &ProviderError{StatusCode: response.Status, Message: response.Message}
	}

	consignment := response.Consignment
	err = ds.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		order.ConsignmentID = &consignment.ConsignmentID
		order.TrackingCode = consignment.TrackingCode
		order.CourierStatus = consignment.Status
		order.SentToCourier = true
		order.SentToCourierAt = &now

		comment := fmt.Sprintf("Sent to courier, tracking code %s", consignment.TrackingCode)
		return ds.orders.updateStatusTx(tx, &order, OrderStatusDeliverySubmitted, actorID, comment)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %s handed off to courier (tracking %s)",
		order.OrderNumber, order.TrackingCode)
	return &order, nil
}

// BulkSendResult is the outcome for one order in a bulk run.
type BulkSendResult struct {
	OrderID      uint   `json:"order_id"`
	Success      bool   `json:"success"`
	TrackingCode string `json:"tracking_code,omitempty"`
	Message      string `json:"message,omitempty"`
}

// BulkSendReport aggregates a bulk run.
type BulkSendReport struct {
	Results      []BulkSendResult `json:"results"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
}

// BulkSend processes up to MaxBulkHandOffSize hand-off requests, each
// validated and attempted independently. A failed item never aborts the
// batch; successive provider calls are spaced by BulkDelay.
func (ds *DeliveryService) BulkSend(requests []HandOffRequest, actorID uint) (*BulkSendReport, error) {
	if len(requests) == 0 {
		return nil, newValidationError("no hand-off requests supplied")
	}
	if len(requests) > MaxBulkHandOffSize {
		return nil, newValidationError("at most %d orders can be sent per bulk call", MaxBulkHandOffSize)
	}

	report := &BulkSendReport{Results: make([]BulkSendResult, 0, len(requests))}
	for i, req := range requests {
		if i > 0 && ds.BulkDelay > 0 {
			time.Sleep(ds.BulkDelay)
		}

		order, err := ds.SendOrder(req, actorID)
		if err != nil {
			utils.ErrorLogger.Printf("Bulk hand-off failed for order %d: %v", req.OrderID, err)
			report.Results = append(report.Results, BulkSendResult{
				OrderID: req.OrderID,
				Success: false,
				Message: err.Error(),
			})
			report.FailureCount++
			continue
		}

		report.Results = append(report.Results, BulkSendResult{
			OrderID:      order.ID,
			Success:      true,
			TrackingCode: order.TrackingCode,
		})
		report.SuccessCount++
	}
	return report, nil
}
