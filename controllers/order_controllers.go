package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/services"
	"github.com/oms-backend/order-management/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Orders   *services.OrderService
	Delivery *services.DeliveryService
	Courier  *services.SteadfastService
	Storage  *services.StorageService
}

func NewOrderController(db *gorm.DB, courier *services.SteadfastService, storage *services.StorageService) *OrderController {
	return &OrderController{
		DB:       db,
		Orders:   services.NewOrderService(db),
		Delivery: services.NewDeliveryService(db, courier),
		Courier:  courier,
		Storage:  storage,
	}
}

func actorID(c *gin.Context) uint {
	return c.GetUint("userID")
}

// respondServiceError maps the service error taxonomy onto HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		providerErr   *services.ProviderError
		transitionErr *services.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &transitionErr):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrAlreadySent):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCustomerNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &providerErr):
		utils.RespondError(c, http.StatusBadGateway, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// CreateOrder opens a new order in state pending.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(input, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders lists orders with optional ?status= and ?search= filters.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.GetAllOrders(c.Query("status"), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID returns one order with items, images and history.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	order, err := oc.Orders.GetOrderByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateStatus applies a manual status transition, optionally attaching a
// tracking number once the transition has been accepted (the tracking
// update itself writes no history). A rejected transition mutates
// nothing.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req struct {
		Status         string `json:"status" binding:"required"`
		TrackingNumber string `json:"tracking_number"`
		Comment        string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.Orders.UpdateOrderStatus(uint(id), req.Status, actorID(c), req.Comment); err != nil {
		respondServiceError(c, err)
		return
	}

	if req.TrackingNumber != "" {
		if err := oc.Orders.SetTrackingNumber(uint(id), req.TrackingNumber); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", nil)
}

// CancelOrder cancels an order with a reason.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.Orders.CancelOrder(uint(id), req.Reason, actorID(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order cancelled", nil)
}

// SendToCourier hands one order to the delivery provider.
func (oc *OrderController) SendToCourier(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req services.HandOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.OrderID = uint(id)

	order, err := oc.Delivery.SendOrder(req, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order sent to courier", gin.H{
		"order_id":       order.ID,
		"consignment_id": order.ConsignmentID,
		"tracking_code":  order.TrackingCode,
		"status":         order.Status,
	})
}

// BulkSendToCourier hands off up to 50 orders in one call.
func (oc *OrderController) BulkSendToCourier(c *gin.Context) {
	var req struct {
		Orders []services.HandOffRequest `json:"orders" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	report, err := oc.Delivery.BulkSend(req.Orders, actorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Bulk hand-off processed", report)
}

// GetCourierBalance passes the courier account balance through.
func (oc *OrderController) GetCourierBalance(c *gin.Context) {
	balance, err := oc.Courier.GetCurrentBalance()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Courier balance", balance)
}

// UploadScreenshot stores an evidence image and returns its path and
// public URL; the caller attaches the URL on order creation.
func (oc *OrderController) UploadScreenshot(c *gin.Context) {
	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("screenshot file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	bucket := oc.Storage.Bucket()
	path, err := oc.Storage.UploadFile(data, fileHeader.Filename, bucket, "orders")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Screenshot uploaded", gin.H{
		"path": path,
		"url":  oc.Storage.GetPublicURL(bucket, path),
	})
}
