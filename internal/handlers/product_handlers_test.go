package handlers

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_SlugifiesName(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 1, "admin")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs("Wireless Mouse XL", "wireless-mouse-xl", "A mouse", 20.00, 10.0, 5, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/products", map[string]any{
		"name":        "Wireless Mouse XL",
		"description": "A mouse",
		"price":       20.00,
		"discount":    10,
		"stock":       5,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "wireless-mouse-xl", body["product"].(map[string]any)["slug"])
	assert.Equal(t, 18.00, body["discountedPrice"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct_RejectsOutOfRangeDiscount(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 1, "admin")

	w := doJSON(t, r, http.MethodPost, "/admin/products", map[string]any{
		"name":     "Overdiscounted",
		"price":    20.00,
		"discount": 150,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProduct_ComputesDiscountedPrice(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "description", "price", "discount", "stock", "image_url", "created_at", "updated_at"}).
			AddRow(2, "Bravo Mouse", "bravo-mouse", "A mouse", 200.00, 25.0, 0, nil, now, now))

	w := doJSON(t, r, http.MethodGet, "/products/2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 150.00, body["discountedPrice"])
	assert.Equal(t, false, body["inStock"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProduct_NotFound(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs("404").
		WillReturnError(sql.ErrNoRows)

	w := doJSON(t, r, http.MethodGet, "/products/404", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
