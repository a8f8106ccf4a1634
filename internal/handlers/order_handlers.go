package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopora/shopora-golang/internal/models"
	"github.com/sirupsen/logrus"
)

//
// --- Checkout ---
//

// CheckoutInput defines the JSON body for placing an order.
type CheckoutInput struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PhoneNumber     string `json:"phone_number" binding:"required"`
}

// validContact requires at least 10 non-whitespace characters. Phone numbers
// are deliberately not format-checked beyond this.
func validContact(v string) bool {
	return len(strings.TrimSpace(v)) >= 10
}

// checkoutLine carries one locked cart line through the checkout
// transaction: the quantity requested, and the product's name, stock and
// discounted unit price as read under the row lock.
type checkoutLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice float64
	Stock     int
}

// Checkout is the handler for POST /v1/checkout. It converts the caller's
// cart into an order as a single atomic unit: snapshot prices, create the
// order and its items, decrement stock, clear the cart, and write the
// initial history entry. Any failure rolls the whole thing back.
//
// The cart lines are read with their product rows locked (FOR UPDATE), so
// two checkouts competing for the last units of a product serialize: the
// second sees the decremented stock and fails cleanly instead of overselling.
func (h *Handlers) Checkout(c *gin.Context) {
	userID, _ := requester(c)

	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if !validContact(input.ShippingAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a valid shipping address"})
		return
	}
	if !validContact(input.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a valid phone number"})
		return
	}

	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		h.dbError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	var cartID int64
	err = tx.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			return
		}
		h.dbError(c, err, "Failed to find cart")
		return
	}

	// Lock the product rows for every cart line for the duration of the
	// transaction. Price, stock and name are all snapshotted from this read.
	query := `
		SELECT ci.product_id, p.name, ci.quantity, p.price, p.discount, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = ?
		ORDER BY ci.id
		FOR UPDATE`
	rows, err := tx.Query(query, cartID)
	if err != nil {
		h.dbError(c, err, "Failed to read cart items")
		return
	}
	defer rows.Close()

	var lines []checkoutLine
	var totalAmount float64

	for rows.Next() {
		var line checkoutLine
		var p models.Product
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Quantity, &p.Price, &p.Discount, &line.Stock); err != nil {
			h.dbError(c, err, "Failed to scan cart item")
			return
		}
		line.UnitPrice = p.DiscountedPrice()
		totalAmount += line.UnitPrice * float64(line.Quantity)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		h.dbError(c, err, "Error iterating cart items")
		return
	}
	rows.Close()

	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}
	totalAmount = models.RoundMoney(totalAmount)

	now := time.Now()
	order := models.Order{
		OrderNumber:     uuid.NewString(),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: input.ShippingAddress,
		PhoneNumber:     input.PhoneNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result, err := tx.Exec(`
		INSERT INTO orders (order_number, user_id, order_status, total_amount, shipping_address, phone_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber, order.UserID, order.Status, order.TotalAmount,
		order.ShippingAddress, order.PhoneNumber, now, now)
	if err != nil {
		h.dbError(c, err, "Failed to create order")
		return
	}
	order.ID, err = result.LastInsertId()
	if err != nil {
		h.dbError(c, err, "Failed to get new order ID")
		return
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		// Re-check under the lock, then decrement immediately so any later
		// line in this checkout sees the updated stock.
		if line.Stock < line.Quantity {
			c.JSON(http.StatusConflict, gin.H{
				"error": fmt.Sprintf("Insufficient stock for %s", line.Name),
			})
			return
		}

		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    models.RoundMoney(line.UnitPrice * float64(line.Quantity)),
			CreatedAt:   now,
		}
		_, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice, item.Subtotal, item.CreatedAt)
		if err != nil {
			h.dbError(c, err, "Failed to save order item")
			return
		}

		_, err = tx.Exec("UPDATE products SET stock = stock - ? WHERE id = ?", line.Quantity, line.ProductID)
		if err != nil {
			h.dbError(c, err, "Failed to deduct stock")
			return
		}

		items = append(items, item)
	}

	if _, err := tx.Exec("DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		h.dbError(c, err, "Failed to clear cart")
		return
	}

	// The initial ledger entry commits atomically with the order itself.
	if err := h.recordStatusChange(tx, order.ID, nil, order.Status, nil, "Order created", now); err != nil {
		h.dbError(c, err, "Failed to record order creation")
		return
	}

	if err := tx.Commit(); err != nil {
		h.dbError(c, err, "Failed to commit checkout")
		return
	}

	h.Log.WithFields(logrus.Fields{
		"orderId": order.ID,
		"userId":  userID,
		"total":   order.TotalAmount,
	}).Info("order placed")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
		"items":   items,
	})
}

//
// --- Order Retrieval ---
//

// fetchOrder loads one order row by id.
func (h *Handlers) fetchOrder(orderID int64) (*models.Order, error) {
	var o models.Order
	err := h.DB.QueryRow(`
		SELECT id, order_number, user_id, order_status, total_amount, shipping_address, phone_number, created_at, updated_at
		FROM orders
		WHERE id = ?`, orderID).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.TotalAmount,
		&o.ShippingAddress, &o.PhoneNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderDetails is the handler for GET /v1/orders/:id. Owners see their
// own orders; admins see everything.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	userID, isAdmin := requester(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.fetchOrder(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.dbError(c, err, "Failed to fetch order")
		return
	}

	if order.UserID != userID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	// Items are self-contained snapshots; no join back to products needed.
	rows, err := h.DB.Query(`
		SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal, created_at
		FROM order_items
		WHERE order_id = ?
		ORDER BY id`, order.ID)
	if err != nil {
		h.dbError(c, err, "Failed to fetch order items")
		return
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &item.CreatedAt); err != nil {
			h.dbError(c, err, "Failed to scan order item")
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		h.dbError(c, err, "Error iterating order items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// GetUserOrders is the handler for GET /v1/orders/user/:user_id, newest
// first. Callers may list their own orders; admins may list anyone's.
func (h *Handlers) GetUserOrders(c *gin.Context) {
	requesterID, isAdmin := requester(c)

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if targetID != requesterID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, order_number, user_id, order_status, total_amount, shipping_address, phone_number, created_at, updated_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC`, targetID)
	if err != nil {
		h.dbError(c, err, "Failed to fetch orders")
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.TotalAmount,
			&o.ShippingAddress, &o.PhoneNumber, &o.CreatedAt, &o.UpdatedAt); err != nil {
			h.dbError(c, err, "Failed to scan order")
			return
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		h.dbError(c, err, "Error iterating orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderTimeline is the handler for GET /v1/orders/:id/timeline. History
// entries come back oldest first, the opposite of the order list, so the
// response reads as a chronological narrative.
func (h *Handlers) GetOrderTimeline(c *gin.Context) {
	userID, isAdmin := requester(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.fetchOrder(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.dbError(c, err, "Failed to fetch order")
		return
	}

	if order.UserID != userID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, order_id, old_status, new_status, changed_by, changed_at, notes
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY changed_at, id`, order.ID)
	if err != nil {
		h.dbError(c, err, "Failed to fetch order history")
		return
	}
	defer rows.Close()

	history := []models.OrderStatusHistory{}
	for rows.Next() {
		var entry models.OrderStatusHistory
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.OldStatus, &entry.NewStatus,
			&entry.ChangedBy, &entry.ChangedAt, &entry.Notes); err != nil {
			h.dbError(c, err, "Failed to scan history entry")
			return
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		h.dbError(c, err, "Error iterating history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId": order.ID,
		"history": history,
	})
}

//
// --- Status Update (Admin-Only) ---
//

// UpdateOrderStatusInput defines the JSON body for an admin status update.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// UpdateOrderStatus is the handler for PUT /v1/admin/orders/:id/status.
// Any of the fixed status values is accepted from any current state; there
// is no transition graph. The current status is read under a row lock right
// before the write, so a no-op update (same value) appends nothing to the
// ledger even when two admins race.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	actorID, _ := requester(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if !models.IsValidOrderStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status %q, must be one of: %s", input.Status, strings.Join(models.OrderStatuses, ", ")),
		})
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.dbError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	var oldStatus string
	err = tx.QueryRow("SELECT order_status FROM orders WHERE id = ? FOR UPDATE", orderID).Scan(&oldStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.dbError(c, err, "Failed to fetch order")
		return
	}

	changed := oldStatus != input.Status
	if changed {
		now := time.Now()
		if _, err := tx.Exec(
			"UPDATE orders SET order_status = ?, updated_at = ? WHERE id = ?",
			input.Status, now, orderID); err != nil {
			h.dbError(c, err, "Failed to update order status")
			return
		}

		if err := h.recordStatusChange(tx, orderID, &oldStatus, input.Status, &actorID, input.Notes, now); err != nil {
			h.dbError(c, err, "Failed to record status change")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		h.dbError(c, err, "Failed to commit status update")
		return
	}

	if changed {
		h.Log.WithFields(logrus.Fields{
			"orderId": orderID,
			"from":    oldStatus,
			"to":      input.Status,
			"actor":   actorID,
		}).Info("order status updated")
	}

	order, err := h.fetchOrder(orderID)
	if err != nil {
		h.dbError(c, err, "Failed to fetch updated order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
