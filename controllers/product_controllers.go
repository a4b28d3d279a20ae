package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oms-backend/order-management/models"
	"github.com/oms-backend/order-management/utils"
)

type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// GetAllProducts lists products; ?active=true limits to active ones.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	query := pc.DB.Order("name ASC")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req struct {
		Name         string   `json:"name" binding:"required"`
		Variants     string   `json:"variants"`
		Stock        int      `json:"stock_quantity"`
		BuyingPrice  *float64 `json:"buying_price"`
		SellingPrice float64  `json:"selling_price" binding:"required"`
		ImageUrls    string   `json:"image_urls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now().UTC()
	product := models.Product{
		Name:          req.Name,
		Variants:      req.Variants,
		StockQuantity: req.Stock,
		BuyingPrice:   req.BuyingPrice,
		SellingPrice:  req.SellingPrice,
		ImageUrls:     req.ImageUrls,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	var req struct {
		Name         *string  `json:"name"`
		Variants     *string  `json:"variants"`
		BuyingPrice  *float64 `json:"buying_price"`
		SellingPrice *float64 `json:"selling_price"`
		ImageUrls    *string  `json:"image_urls"`
		IsActive     *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Variants != nil {
		product.Variants = *req.Variants
	}
	if req.BuyingPrice != nil {
		product.BuyingPrice = req.BuyingPrice
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.ImageUrls != nil {
		product.ImageUrls = *req.ImageUrls
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = time.Now().UTC()

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// AdjustStock sets or offsets the stock quantity. Stock may go negative;
// the catalog never clamps.
func (pc *ProductController) AdjustStock(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	var req struct {
		Adjustment *int `json:"adjustment"`
		Quantity   *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch {
	case req.Quantity != nil:
		product.StockQuantity = *req.Quantity
	case req.Adjustment != nil:
		product.StockQuantity += *req.Adjustment
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("adjustment or quantity is required"))
		return
	}
	product.UpdatedAt = time.Now().UTC()

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock updated", product)
}

// DeleteProduct removes the product permanently. The active flag is only
// a listing filter, not a soft delete.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	result := pc.DB.Delete(&models.Product{}, id)
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deleted", nil)
}
