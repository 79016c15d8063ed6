package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tavolo-pos/internal/database/models"
	"tavolo-pos/internal/pos"
)

// CatalogHTTPHandler serves the product/category/table CRUD the POS screen
// feeds on. Product writes invalidate the POS catalog cache.
type CatalogHTTPHandler struct {
	db  *gorm.DB
	pos *pos.Service
}

func NewCatalogHTTPHandler(db *gorm.DB, posService *pos.Service) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{db: db, pos: posService}
}

type CreateProductRequest struct {
	ProductName string            `json:"product_name" binding:"required"`
	Price       string            `json:"price" binding:"required"`
	SizePrices  map[string]string `json:"size_prices,omitempty"`
	Quantity    string            `json:"quantity,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	CategoryID  *int64            `json:"category_id,omitempty"`
}

type UpdateProductRequest struct {
	ProductName *string            `json:"product_name,omitempty"`
	Price       *string            `json:"price,omitempty"`
	SizePrices  *map[string]string `json:"size_prices,omitempty"`
	Quantity    *string            `json:"quantity,omitempty"`
	Unit        *string            `json:"unit,omitempty"`
	CategoryID  *int64             `json:"category_id,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

type ListProductsQuery struct {
	Page       int     `form:"page,default=1"`
	PageSize   int     `form:"page_size,default=10"`
	IsActive   *bool   `form:"is_active,omitempty"`
	CategoryID *int64  `form:"category_id,omitempty"`
	SearchTerm *string `form:"search,omitempty"`
}

// validMoney checks that a client-supplied price/quantity parses as a
// non-negative decimal, keeping persisted decimal strings canonical.
func validMoney(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

func (h *CatalogHTTPHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	if !validMoney(req.Price) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
		return
	}
	for label, price := range req.SizePrices {
		if label == "" || !validMoney(price) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid size price"))
			return
		}
	}
	if req.Quantity == "" {
		req.Quantity = "0"
	} else if !validMoney(req.Quantity) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid quantity"))
		return
	}
	if req.Unit == "" {
		req.Unit = "pcs"
	}

	product := models.Product{
		ProductName: req.ProductName,
		Price:       req.Price,
		SizePrices:  models.JSONMap(req.SizePrices),
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		CategoryID:  req.CategoryID,
		IsActive:    true,
	}
	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create product: "+err.Error()))
		return
	}

	h.pos.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusCreated, successResponse("Product created successfully", product))
}

func (h *CatalogHTTPHandler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var product models.Product
	if err := h.db.Preload("Category").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", product))
}

func (h *CatalogHTTPHandler) ListProducts(c *gin.Context) {
	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	if query.PageSize <= 0 {
		query.PageSize = 10
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	dbQuery := h.db.Model(&models.Product{}).Preload("Category")
	if query.IsActive != nil {
		dbQuery = dbQuery.Where("is_active = ?", *query.IsActive)
	}
	if query.CategoryID != nil {
		dbQuery = dbQuery.Where("category_id = ?", *query.CategoryID)
	}
	if query.SearchTerm != nil && *query.SearchTerm != "" {
		dbQuery = dbQuery.Where("product_name ILIKE ?", "%"+*query.SearchTerm+"%")
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var products []models.Product
	offset := (query.Page - 1) * query.PageSize
	if err := dbQuery.Offset(offset).Limit(query.PageSize).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Products retrieved successfully", products, Pagination{
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalCount: total,
	}))
}

func (h *CatalogHTTPHandler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.ProductName != nil {
		product.ProductName = *req.ProductName
	}
	if req.Price != nil {
		if !validMoney(*req.Price) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
			return
		}
		product.Price = *req.Price
	}
	if req.SizePrices != nil {
		for label, price := range *req.SizePrices {
			if label == "" || !validMoney(price) {
				c.JSON(http.StatusBadRequest, errorResponse("Invalid size price"))
				return
			}
		}
		product.SizePrices = models.JSONMap(*req.SizePrices)
	}
	if req.Quantity != nil {
		if !validMoney(*req.Quantity) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid quantity"))
			return
		}
		product.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update product: "+err.Error()))
		return
	}

	h.pos.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, successResponse("Product updated successfully", product))
}

// DeleteProduct deactivates rather than removes: historical order items
// reference the product row, so a hard delete would break them.
func (h *CatalogHTTPHandler) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	result := h.db.Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete product"))
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		return
	}

	h.pos.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, successResponse("Product deactivated successfully", nil))
}

// --- Categories ---

type CategoryRequest struct {
	CategoryName string `json:"category_name" binding:"required"`
}

func (h *CatalogHTTPHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	category := models.Category{CategoryName: req.CategoryName, IsActive: true}
	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create category: "+err.Error()))
		return
	}
	c.JSON(http.StatusCreated, successResponse("Category created successfully", category))
}

func (h *CatalogHTTPHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := h.db.Where("is_active = ?", true).Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Categories retrieved successfully", categories))
}

func (h *CatalogHTTPHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	result := h.db.Delete(&models.Category{}, categoryID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete category"))
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Category not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Category deleted successfully", nil))
}

// --- Tables ---

type TableRequest struct {
	TableName string `json:"table_name" binding:"required"`
	Capacity  int32  `json:"capacity,omitempty"`
}

func (h *CatalogHTTPHandler) CreateTable(c *gin.Context) {
	var req TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	if req.Capacity <= 0 {
		req.Capacity = 4
	}

	table := models.DiningTable{TableName: req.TableName, Capacity: req.Capacity, IsActive: true}
	if err := h.db.Create(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create table: "+err.Error()))
		return
	}
	c.JSON(http.StatusCreated, successResponse("Table created successfully", table))
}

func (h *CatalogHTTPHandler) ListTables(c *gin.Context) {
	var tables []models.DiningTable
	if err := h.db.Where("is_active = ?", true).Find(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Tables retrieved successfully", tables))
}

func (h *CatalogHTTPHandler) DeleteTable(c *gin.Context) {
	tableID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid table ID"))
		return
	}

	result := h.db.Delete(&models.DiningTable{}, tableID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete table"))
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Table not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Table deleted successfully", nil))
}
