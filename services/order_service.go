package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/utils"
)

// OrderService owns the order lifecycle: creation, status transitions and
// the audit trail. Every status change, whether a staff action or a
// courier callback, goes through updateStatusTx.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput is one requested line item. ProductID is optional; when
// present the product's stock is decremented best-effort.
type OrderItemInput struct {
	ProductID   *uint   `json:"product_id,omitempty"`
	ProductName string  `json:"product_name"`
	Variant     string  `json:"variant"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CreateOrderInput carries everything needed to open an order. Items is
// the canonical representation; the legacy single-product fields are
// honored only when Items is empty.
type CreateOrderInput struct {
	CustomerName    string           `json:"customer_name"`
	CustomerPhone   string           `json:"customer_phone"`
	CustomerAddress string           `json:"customer_address"`
	Items           []OrderItemInput `json:"items"`
	ProductID       *uint            `json:"product_id,omitempty"`
	ProductName     string           `json:"product_name"`
	ProductVariant  string           `json:"product_variant"`
	ProductQuantity int              `json:"product_quantity"`
	ProductPrice    float64          `json:"product_price"`
	OrderNotes      string           `json:"order_notes"`
	ImageURLs       []string         `json:"image_urls"`
}

func (in *CreateOrderInput) validate() error {
	if in.CustomerName == "" || in.CustomerPhone == "" || in.CustomerAddress == "" {
		return newValidationError("customer name, phone and address are required")
	}
	for i, item := range in.Items {
		if item.ProductName == "" {
			return newValidationError("item %d: product name is required", i+1)
		}
		if item.Quantity < 1 {
			return newValidationError("item %d: quantity must be at least 1", i+1)
		}
		if item.Price < 0 {
			return newValidationError("item %d: price cannot be negative", i+1)
		}
	}
	if len(in.Items) == 0 {
		if in.ProductName == "" {
			return newValidationError("at least one item is required")
		}
		if in.ProductQuantity < 1 {
			return newValidationError("product quantity must be at least 1")
		}
		if in.ProductPrice < 0 {
			return newValidationError("product price cannot be negative")
		}
	}
	return nil
}

// CreateOrder runs the whole creation workflow in one transaction:
// customer upsert by phone, best-effort stock decrement, order number
// generation, and the order plus its creation history row. If anything
// fails, nothing is retained.
func (s *OrderService) CreateOrder(input CreateOrderInput, createdBy uint) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// Customer upsert by phone. The counter increments for
		// pre-existing customers too: every creation is one more order.
		var customer models.Customer
		err := tx.Where("phone = ?", input.CustomerPhone).First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			customer = models.Customer{
				Name:        input.CustomerName,
				Phone:       input.CustomerPhone,
				Address:     input.CustomerAddress,
				TotalOrders: 0,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return fmt.Errorf("create customer: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("find customer: %w", err)
		}

		customer.TotalOrders++
		customer.UpdatedAt = now
		if err := tx.Save(&customer).Error; err != nil {
			return fmt.Errorf("update customer: %w", err)
		}

		var (
			productName     string
			productQuantity int
			productPrice    float64
			items           []models.OrderItem
		)

		if len(input.Items) > 0 {
			for _, item := range input.Items {
				items = append(items, models.OrderItem{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Variant:     item.Variant,
					Quantity:    item.Quantity,
					Price:       item.Price,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
				productQuantity += item.Quantity
				productPrice += item.Price * float64(item.Quantity)
				if err := decrementStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			productName = summarizeItems(items)
		} else {
			// Legacy single-product payload: unit price, so the derived
			// total stays price x quantity.
			productName = input.ProductName
			productQuantity = input.ProductQuantity
			productPrice = input.ProductPrice
			if err := decrementStock(tx, input.ProductID, input.ProductQuantity); err != nil {
				return err
			}
		}

		orderNumber, err := generateOrderNumber(tx, now)
		if err != nil {
			return err
		}

		images := make([]models.OrderImage, 0, len(input.ImageURLs))
		for _, url := range input.ImageURLs {
			images = append(images, models.OrderImage{URL: url, CreatedAt: now})
		}

		order = models.Order{
			OrderNumber:     orderNumber,
			CustomerID:      customer.ID,
			CustomerName:    input.CustomerName,
			CustomerPhone:   input.CustomerPhone,
			CustomerAddress: input.CustomerAddress,
			ProductID:       input.ProductID,
			ProductName:     productName,
			ProductVariant:  input.ProductVariant,
			ProductQuantity: productQuantity,
			ProductPrice:    productPrice,
			Items:           items,
			Images:          images,
			OrderNotes:      input.OrderNotes,
			Status:          OrderStatusPending,
			CreatedBy:       createdBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		history := models.OrderHistory{
			OrderID:   order.ID,
			ChangedBy: createdBy,
			NewStatus: OrderStatusPending,
			Comment:   "Order created",
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create order history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %s created for %s (%d items)",
		order.OrderNumber, order.CustomerPhone, len(order.Items))
	return &order, nil
}

// decrementStock takes stock only when enough is on hand. A short stock
// leaves the product untouched and the order still succeeds.
func decrementStock(tx *gorm.DB, productID *uint, quantity int) error {
	if productID == nil {
		return nil
	}
	var product models.Product
	err := tx.First(&product, *productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find product %d: %w", *productID, err)
	}
	if product.StockQuantity >= quantity {
		product.StockQuantity -= quantity
		if err := tx.Save(&product).Error; err != nil {
			return fmt.Errorf("update product stock: %w", err)
		}
	}
	return nil
}

func summarizeItems(items []models.OrderItem) string {
	o := models.Order{Items: items}
	return o.ItemSummary()
}

// generateOrderNumber assigns ORD-<UTC date>-<NNNN>, where NNNN is the
// count of today's orders plus one. Two creations racing in the same
// instant can compute the same count; the unique index then fails one of
// them.
func generateOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "ORD-" + now.UTC().Format("20060102")
	var count int64
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("count today's orders: %w", err)
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// UpdateOrderStatus applies one status transition on behalf of actorID.
// The edge must be in the allowed set; a history row is appended even for
// a self-transition.
func (s *OrderService) UpdateOrderStatus(orderID uint, newStatus string, actorID uint, comment string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		return s.updateStatusTx(tx, &order, newStatus, actorID, comment)
	})
}

// updateStatusTx is the single funnel for status changes: it validates
// the edge, mutates the order and appends the audit row inside the
// caller's transaction.
func (s *OrderService) updateStatusTx(tx *gorm.DB, order *models.Order, newStatus string, actorID uint, comment string) error {
	previous := order.Status

	if err := ApplyTransition(order, newStatus, time.Now().UTC()); err != nil {
		return err
	}
	order.ProcessedBy = &actorID

	if err := tx.Save(order).Error; err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	history := models.OrderHistory{
		OrderID:        order.ID,
		ChangedBy:      actorID,
		PreviousStatus: &previous,
		NewStatus:      newStatus,
		Comment:        comment,
		CreatedAt:      time.Now().UTC(),
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("create order history: %w", err)
	}
	return nil
}

// CancelOrder records the reason and drives the cancelled transition.
func (s *OrderService) CancelOrder(orderID uint, reason string, actorID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.First(&order, orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		order.CancellationReason = reason
		return s.updateStatusTx(tx, &order, OrderStatusCancelled, actorID, reason)
	})
}

// SetTrackingNumber attaches a manual delivery tracking number. This is a
// side-channel update: it does not touch the status and writes no history.
func (s *OrderService) SetTrackingNumber(orderID uint, trackingNumber string) error {
	result := s.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"delivery_tracking_number": trackingNumber,
			"updated_at":               time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("update tracking number: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetOrderByID loads an order with all of its associations.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Preload("Customer").
		Preload("Product").
		Preload("Creator").
		Preload("Processor").
		Preload("Items").
		Preload("Images").
		Preload("Histories", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Histories.ChangedByUser").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

// GetAllOrders lists orders, optionally filtered by status and a search
// term matched against order number, customer name/phone and product
// summary.
func (s *OrderService) GetAllOrders(status, search string) ([]models.Order, error) {
	query := s.db.
		Preload("Customer").
		Preload("Creator").
		Preload("Items")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"order_number LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ? OR product_name LIKE ?",
			like, like, like, like,
		)
	}

	var orders []models.Order
	if err := query.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
