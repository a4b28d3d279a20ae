package services

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// setupTestDB opens a fresh in-memory database and seeds one staff user.
func setupTestDB(t *testing.T) (*gorm.DB, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderImage{},
		&models.OrderHistory{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	user := models.User{
		Name:     "Test Staff",
		Email:    strings.ReplaceAll(t.Name(), "/", "_") + "@example.com",
		Password: "hashed",
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return db, &user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, price float64) *models.Product {
	t.Helper()
	product := models.Product{
		Name:          name,
		StockQuantity: stock,
		SellingPrice:  price,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &product
}

func baseCreateInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:    "Rahim Uddin",
		CustomerPhone:   "01712345678",
		CustomerAddress: "House 12, Road 5, Dhanmondi, Dhaka",
	}
}

func TestCreateOrderWithLineItems(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)
	shirt := seedProduct(t, db, "Shirt", 10, 500)

	input := baseCreateInput()
	input.Items = []OrderItemInput{
		{ProductID: &shirt.ID, ProductName: "Shirt", Quantity: 2, Price: 500},
		{ProductName: "Pants", Quantity: 1, Price: 800},
	}
	input.ImageURLs = []string{"orders/proof.png"}
	input.OrderNotes = "deliver before friday"

	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, 1800.0, order.TotalAmount())
	assert.Equal(t, "Shirt x2, Pants x1", order.ProductName)
	assert.Equal(t, 3, order.ProductQuantity)

	// Stock decremented for the referenced product only.
	var reloadedShirt models.Product
	assert.NoError(t, db.First(&reloadedShirt, shirt.ID).Error)
	assert.Equal(t, 8, reloadedShirt.StockQuantity)

	// Customer upserted with counter 1.
	var customer models.Customer
	assert.NoError(t, db.Where("phone = ?", input.CustomerPhone).First(&customer).Error)
	assert.Equal(t, 1, customer.TotalOrders)

	// One creation history row, previous status null.
	var histories []models.OrderHistory
	assert.NoError(t, db.Where("order_id = ?", order.ID).Find(&histories).Error)
	if assert.Len(t, histories, 1) {
		assert.Nil(t, histories[0].PreviousStatus)
		assert.Equal(t, OrderStatusPending, histories[0].NewStatus)
	}

	// Full reload carries items and images.
	detail, err := svc.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.Images, 1)
}

func TestCreateOrderLegacySingleProduct(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)
	hoodie := seedProduct(t, db, "Blue Hoodie", 5, 150)

	input := baseCreateInput()
	input.ProductID = &hoodie.ID
	input.ProductName = "Blue Hoodie"
	input.ProductQuantity = 2
	input.ProductPrice = 150

	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, 300.0, order.TotalAmount())
	assert.Equal(t, "Blue Hoodie", order.ProductName)
	assert.Empty(t, order.Items)

	var reloaded models.Product
	assert.NoError(t, db.First(&reloaded, hoodie.ID).Error)
	assert.Equal(t, 3, reloaded.StockQuantity)
}

func TestCreateOrderLenientStockDecrement(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)
	scarf := seedProduct(t, db, "Scarf", 3, 200)

	input := baseCreateInput()
	input.Items = []OrderItemInput{
		{ProductID: &scarf.ID, ProductName: "Scarf", Quantity: 5, Price: 200},
	}

	// Short stock: the order still succeeds and stock is untouched.
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPending, order.Status)

	var reloaded models.Product
	assert.NoError(t, db.First(&reloaded, scarf.ID).Error)
	assert.Equal(t, 3, reloaded.StockQuantity)
}

func TestCreateOrderIncrementsExistingCustomer(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}

	_, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)
	_, err = svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	var customers []models.Customer
	assert.NoError(t, db.Where("phone = ?", input.CustomerPhone).Find(&customers).Error)
	if assert.Len(t, customers, 1) {
		assert.Equal(t, 2, customers[0].TotalOrders)
	}
}

func TestOrderNumberSequence(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	prefix := "ORD-" + time.Now().UTC().Format("20060102")
	for i := 1; i <= 3; i++ {
		input := baseCreateInput()
		input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}

		order, err := svc.CreateOrder(input, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%s-%04d", prefix, i), order.OrderNumber)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 0, Price: 500}}

	_, err := svc.CreateOrder(input, user.ID)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// Nothing was written.
	var count int64
	assert.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateOrderStatusAppendsHistory(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	err = svc.UpdateOrderStatus(order.ID, OrderStatusDeliverySubmitted, user.ID, "handed to courier desk")
	assert.NoError(t, err)

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusDeliverySubmitted, reloaded.Status)
	if assert.NotNil(t, reloaded.ProcessedBy) {
		assert.Equal(t, user.ID, *reloaded.ProcessedBy)
	}
	assert.Nil(t, reloaded.CompletedAt)

	var histories []models.OrderHistory
	assert.NoError(t, db.Where("order_id = ?", order.ID).Order("id ASC").Find(&histories).Error)
	if assert.Len(t, histories, 2) {
		last := histories[1]
		if assert.NotNil(t, last.PreviousStatus) {
			assert.Equal(t, OrderStatusPending, *last.PreviousStatus)
		}
		assert.Equal(t, OrderStatusDeliverySubmitted, last.NewStatus)
		assert.Equal(t, "handed to courier desk", last.Comment)
	}

	// Completion stamps CompletedAt.
	err = svc.UpdateOrderStatus(order.ID, OrderStatusCompleted, user.ID, "")
	assert.NoError(t, err)
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.NotNil(t, reloaded.CompletedAt)
}

func TestUpdateOrderStatusRejectsInvalidEdge(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	err = svc.UpdateOrderStatus(order.ID, OrderStatusCompleted, user.ID, "")
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)

	// The rejected transition leaves no trace.
	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusPending, reloaded.Status)

	var count int64
	assert.NoError(t, db.Model(&models.OrderHistory{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	err := svc.UpdateOrderStatus(9999, OrderStatusCancelled, user.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSelfTransitionIsAudited(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	err = svc.UpdateOrderStatus(order.ID, OrderStatusPending, user.ID, "re-confirmed by phone")
	assert.NoError(t, err)

	var count int64
	assert.NoError(t, db.Model(&models.OrderHistory{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCancelOrderStoresReason(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	err = svc.CancelOrder(order.ID, "customer changed mind", user.ID)
	assert.NoError(t, err)

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, "customer changed mind", reloaded.CancellationReason)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestSetTrackingNumberWritesNoHistory(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	input := baseCreateInput()
	input.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(input, user.ID)
	assert.NoError(t, err)

	assert.NoError(t, svc.SetTrackingNumber(order.ID, "SA-774411"))

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, "SA-774411", reloaded.DeliveryTrackingNumber)
	assert.Equal(t, OrderStatusPending, reloaded.Status)

	var count int64
	assert.NoError(t, db.Model(&models.OrderHistory{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, svc.SetTrackingNumber(9999, "SA-1"), ErrOrderNotFound)
}

func TestGetAllOrdersFilters(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewOrderService(db)

	first := baseCreateInput()
	first.Items = []OrderItemInput{{ProductName: "Shirt", Quantity: 1, Price: 500}}
	order, err := svc.CreateOrder(first, user.ID)
	assert.NoError(t, err)

	second := baseCreateInput()
	second.CustomerPhone = "01898765432"
	second.CustomerName = "Karim Mia"
	second.Items = []OrderItemInput{{ProductName: "Pants", Quantity: 1, Price: 800}}
	_, err = svc.CreateOrder(second, user.ID)
	assert.NoError(t, err)

	assert.NoError(t, svc.UpdateOrderStatus(order.ID, OrderStatusCancelled, user.ID, ""))

	pending, err := svc.GetAllOrders(OrderStatusPending, "")
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	byPhone, err := svc.GetAllOrders("", "0189876")
	assert.NoError(t, err)
	assert.Len(t, byPhone, 1)

	all, err := svc.GetAllOrders("", "")
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}
