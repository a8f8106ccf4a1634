package handlers

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCart_NewLine(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectBegin()
	// No cart yet: one gets created lazily.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carts")).
		WithArgs(9, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?")).
		WithArgs(7, 3).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items")).
		WithArgs(7, 3, 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := doJSON(t, r, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 3,
		"quantity":   2,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCart_AccumulatedQuantityExceedsStock(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	// 3 already in the cart plus 2 requested exceeds stock of 4.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?")).
		WithArgs(7, 3).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))
	mock.ExpectRollback()

	w := doJSON(t, r, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 3,
		"quantity":   2,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id = ?")).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	w := doJSON(t, r, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 404,
		"quantity":   1,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCart_RejectsZeroQuantity(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	w := doJSON(t, r, http.MethodPost, "/cart/items", map[string]any{
		"product_id": 3,
		"quantity":   0,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCart_ComputesLiveTotals(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ci.product_id, p.name, p.price, p.discount, ci.quantity, p.stock")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "price", "discount", "quantity", "stock"}).
			AddRow(1, "Alpha Keyboard", 10.00, 0.0, 2, 5).
			AddRow(2, "Bravo Mouse", 20.00, 10.0, 1, 1))

	w := doJSON(t, r, http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	// 2 x 10.00 plus 1 x 18.00 (20.00 less 10 percent).
	assert.Equal(t, 38.00, body["total"])
	assert.Equal(t, float64(3), body["totalItems"])

	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, 20.00, first["subtotal"])
	second := items[1].(map[string]any)
	assert.Equal(t, 18.00, second["price"])
	assert.Equal(t, 18.00, second["subtotal"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCart_CreatesMissingCart(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carts")).
		WithArgs(9, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ci.product_id, p.name, p.price, p.discount, ci.quantity, p.stock")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "price", "discount", "quantity", "stock"}))

	w := doJSON(t, r, http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["total"])
	assert.Empty(t, body["items"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCartItem_OverwritesQuantity(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id = ?")).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = ?")).
		WithArgs(5, sqlmock.AnyArg(), 7, "3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPut, "/cart/items/3", map[string]any{"quantity": 5})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCartItem_ZeroDeletesLine(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?")).
		WithArgs(7, "3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPut, "/cart/items/3", map[string]any{"quantity": 0})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "removed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCartItem_LineNotInCart(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM products WHERE id = ?")).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = ?")).
		WithArgs(5, sqlmock.AnyArg(), 7, "3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(t, r, http.MethodPut, "/cart/items/3", map[string]any{"quantity": 5})

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCart_Idempotent(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	// No cart at all still succeeds.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	w := doJSON(t, r, http.MethodDelete, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already empty")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCart_DeletesAllLines(t *testing.T) {
	h, mock := newTestHandlers(t)
	r := testRouter(h, 9, "customer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 4))

	w := doJSON(t, r, http.MethodDelete, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
