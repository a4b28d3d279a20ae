package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/services"
	"github.com/oms-backend/order-management/utils"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// GetStats aggregates the numbers the dashboard cards show: order counts
// by status, today's volume, completed revenue and low-stock products.
func (dc *DashboardController) GetStats(c *gin.Context) {
	var statusCounts []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	if err := dc.DB.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// "Today" follows the office clock, not UTC.
	today := utils.LocalDayStartUTC(time.Now())
	var todayOrders int64
	if err := dc.DB.Model(&models.Order{}).
		Where("created_at >= ?", today).
		Count(&todayOrders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Totals are derived per order (items when present, legacy price x
	// quantity otherwise), so revenue is summed here rather than in SQL.
	var completedOrders []models.Order
	if err := dc.DB.Preload("Items").
		Where("status = ?", services.OrderStatusCompleted).
		Find(&completedOrders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	var completedRevenue float64
	for i := range completedOrders {
		completedRevenue += completedOrders[i].TotalAmount()
	}

	var lowStock []models.Product
	if err := dc.DB.Where("is_active = ? AND stock_quantity <= ?", true, 5).
		Order("stock_quantity ASC").
		Limit(10).
		Find(&lowStock).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"status_counts":     statusCounts,
		"today_orders":      todayOrders,
		"completed_revenue": completedRevenue,
		"low_stock":         lowStock,
	})
}
