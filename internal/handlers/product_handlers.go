package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/shopora/shopora-golang/internal/models"
)

//
// --- Catalog Handlers ---
//
// The catalog proper (browsing, search, categories) lives in the catalog
// service. This API carries just enough of a write path for administrators
// to seed products that carts and orders reference.
//

// CreateProductInput defines the JSON body for creating a product.
type CreateProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Discount    float64 `json:"discount" binding:"gte=0,lte=100"`
	Stock       int     `json:"stock" binding:"gte=0"`
	ImageURL    *string `json:"image_url"`
}

// CreateProduct is the handler for POST /v1/admin/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	now := time.Now()
	p := models.Product{
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Discount:    input.Discount,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := h.DB.Exec(`
		INSERT INTO products (name, slug, description, price, discount, stock, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Slug, p.Description, p.Price, p.Discount, p.Stock, p.ImageURL, now, now)
	if err != nil {
		h.dbError(c, err, "Failed to create product")
		return
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		h.dbError(c, err, "Failed to get new product ID")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product":         p,
		"discountedPrice": p.DiscountedPrice(),
	})
}

// GetProduct is the handler for GET /v1/products/:id. The discounted price
// and stock flag are computed at read time, never stored.
func (h *Handlers) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	var p models.Product
	err := h.DB.QueryRow(`
		SELECT id, name, slug, description, price, discount, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = ?`, productID).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Discount,
		&p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.dbError(c, err, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":         p,
		"discountedPrice": p.DiscountedPrice(),
		"inStock":         p.IsInStock(),
	})
}
