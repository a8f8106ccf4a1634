package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopora/shopora-golang/internal/models"
)

//
// --- Cart Handlers ---
//

// getOrCreateCartID finds the user's cart or creates it lazily. It accepts
// either the pool or an open transaction.
func (h *Handlers) getOrCreateCartID(q querier, userID int64) (int64, error) {
	var cartID int64
	err := q.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}

	if err == sql.ErrNoRows {
		now := time.Now()
		result, err := q.Exec(
			"INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)",
			userID, now, now)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	return 0, err
}

// AddToCartInput defines the JSON body for adding an item to the cart.
type AddToCartInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddToCart is the handler for POST /v1/cart/items. Quantities accumulate:
// adding 2 to a line that already holds 3 asks for 5, and the stock check
// runs against the combined quantity.
func (h *Handlers) AddToCart(c *gin.Context) {
	userID, _ := requester(c)

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		h.dbError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	cartID, err := h.getOrCreateCartID(tx, userID)
	if err != nil {
		h.dbError(c, err, "Cart initialization failed")
		return
	}

	var stock int
	err = tx.QueryRow("SELECT stock FROM products WHERE id = ?", input.ProductID).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.dbError(c, err, "Failed to check product stock")
		return
	}

	// An existing line for this product counts against the stock check.
	var existing int
	err = tx.QueryRow(
		"SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?",
		cartID, input.ProductID).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		h.dbError(c, err, "Failed to check cart")
		return
	}

	if stock < existing+input.Quantity {
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock available"})
		return
	}

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = VALUES(updated_at)`,
		cartID, input.ProductID, input.Quantity, now, now)
	if err != nil {
		h.dbError(c, err, "Failed to update cart")
		return
	}

	if err := tx.Commit(); err != nil {
		h.dbError(c, err, "Commit failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart"})
}

// CartItemResponse is one line of the cart view. Price is the discounted
// unit price at this instant; Subtotal is Price x Quantity, computed live.
type CartItemResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Stock     int     `json:"stock"`
}

// GetCart is the handler for GET /v1/cart. It never fails for a valid user:
// a missing cart is created empty on the spot.
func (h *Handlers) GetCart(c *gin.Context) {
	userID, _ := requester(c)

	cartID, err := h.getOrCreateCartID(h.DB, userID)
	if err != nil {
		h.dbError(c, err, "Failed to load cart")
		return
	}

	query := `
		SELECT ci.product_id, p.name, p.price, p.discount, ci.quantity, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = ?
		ORDER BY ci.id`
	rows, err := h.DB.Query(query, cartID)
	if err != nil {
		h.dbError(c, err, "Failed to query cart items")
		return
	}
	defer rows.Close()

	items := []CartItemResponse{}
	var total float64
	var totalItems int

	for rows.Next() {
		var item CartItemResponse
		var p models.Product
		if err := rows.Scan(&item.ProductID, &item.Name, &p.Price, &p.Discount, &item.Quantity, &item.Stock); err != nil {
			h.dbError(c, err, "Failed to scan cart item")
			return
		}

		item.Price = p.DiscountedPrice()
		item.Subtotal = models.RoundMoney(item.Price * float64(item.Quantity))
		total += item.Subtotal
		totalItems += item.Quantity
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		h.dbError(c, err, "Error iterating cart items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cartId":     cartID,
		"items":      items,
		"total":      models.RoundMoney(total),
		"totalItems": totalItems,
	})
}

// UpdateCartItemInput defines the JSON body for setting an item's quantity.
// Zero is allowed and removes the line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:product_id. Unlike
// AddToCart, the quantity overwrites the line rather than accumulating, and
// the stock check runs against the new quantity alone.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	userID, _ := requester(c)
	productIDStr := c.Param("product_id")

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	quantity := *input.Quantity

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		h.dbError(c, err, "Failed to find cart")
		return
	}

	if quantity == 0 {
		h.deleteCartItem(c, cartID, productIDStr)
		return
	}

	var stock int
	err = h.DB.QueryRow("SELECT stock FROM products WHERE id = ?", productIDStr).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.dbError(c, err, "Failed to check product stock")
		return
	}
	if stock < quantity {
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock available"})
		return
	}

	result, err := h.DB.Exec(
		"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE cart_id = ? AND product_id = ?",
		quantity, time.Now(), cartID, productIDStr)
	if err != nil {
		h.dbError(c, err, "Failed to update item")
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item quantity updated"})
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:product_id.
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	userID, _ := requester(c)
	productIDStr := c.Param("product_id")

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		h.dbError(c, err, "Failed to find cart")
		return
	}

	h.deleteCartItem(c, cartID, productIDStr)
}

// deleteCartItem removes a single line and reports 404 when it was absent.
func (h *Handlers) deleteCartItem(c *gin.Context, cartID int64, productIDStr string) {
	result, err := h.DB.Exec(
		"DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?",
		cartID, productIDStr)
	if err != nil {
		h.dbError(c, err, "Failed to delete item")
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}

// ClearCart is the handler for DELETE /v1/cart. Clearing an empty or
// nonexistent cart succeeds silently.
func (h *Handlers) ClearCart(c *gin.Context) {
	userID, _ := requester(c)

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"message": "Cart is already empty"})
			return
		}
		h.dbError(c, err, "Failed to find cart")
		return
	}

	if _, err := h.DB.Exec("DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		h.dbError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}
