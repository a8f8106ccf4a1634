package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// newTestHandlers returns a Handlers wired to a sqlmock connection and a
// silenced logger.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Handlers{DB: db, Log: logger}, mock
}

// testRouter mounts the handler routes behind a stub middleware that injects
// the given identity, standing in for the JWT auth middleware.
func testRouter(h *Handlers, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
	})

	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddToCart)
	r.PUT("/cart/items/:product_id", h.UpdateCartItem)
	r.DELETE("/cart/items/:product_id", h.DeleteCartItem)
	r.DELETE("/cart", h.ClearCart)

	r.POST("/checkout", h.Checkout)

	r.GET("/orders/:id", h.GetOrderDetails)
	r.GET("/orders/:id/timeline", h.GetOrderTimeline)
	r.GET("/orders/user/:user_id", h.GetUserOrders)

	r.GET("/products/:id", h.GetProduct)
	r.POST("/admin/products", h.CreateProduct)
	r.PUT("/admin/orders/:id/status", h.UpdateOrderStatus)

	return r
}

// doJSON performs a request with an optional JSON body and returns the
// recorded response.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a JSON response body into a generic map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
