package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	UoM       string `json:"uom"`
}

// CreateProduct handles POST /api/v1/products (stock/admin)
func CreateProduct(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}
	if user.Role != models.RoleStock && user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only stock managers or admins can manage products")
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	product := models.Product{
		Name:      req.Name,
		Type:      req.Type,
		UnitPrice: req.UnitPrice,
		UoM:       req.UoM,
	}
	if product.UoM == "" {
		product.UoM = "m"
	}

	if err := config.GetDB().Create(&product).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// ListProducts handles GET /api/v1/products (staff)
func ListProducts(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	query := config.GetDB().Order("id")
	if productType := c.Query("type"); productType != "" {
		query = query.Where("type = ?", productType)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// SetStockLevelRequest sets the on-hand quantity at a location.
type SetStockLevelRequest struct {
	ProductID uint    `json:"product_id" binding:"required"`
	Location  string  `json:"location"`
	OnHand    float64 `json:"on_hand"`
}

// SetStockLevel handles PUT /api/v1/stock-levels (stock/admin)
func SetStockLevel(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}
	if user.Role != models.RoleStock && user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only stock managers or admins can adjust stock")
		return
	}

	var req SetStockLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}
	if req.Location == "" {
		req.Location = services.StockLocation
	}

	db := config.GetDB()
	var level models.StockLevel
	err := db.Where("product_id = ? AND location = ?", req.ProductID, req.Location).First(&level).Error
	if err != nil {
		level = models.StockLevel{ProductID: req.ProductID, Location: req.Location, OnHand: req.OnHand}
		err = db.Create(&level).Error
	} else {
		level.OnHand = req.OnHand
		err = db.Save(&level).Error
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to set stock level")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    level,
	})
}

// GetStockLevels handles GET /api/v1/stock-levels (staff)
func GetStockLevels(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	var levels []models.StockLevel
	if err := config.GetDB().Preload("Product").Order("id").Find(&levels).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list stock levels")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    levels,
	})
}
