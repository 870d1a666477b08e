package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/payment"
)

func newTestHandler(t *testing.T, mode payment.Mode, c2Stock int) (*http.ServeMux, *Service) {
	t.Helper()

	svc, _ := setupService(t, nil, setupWarehouse(t, 100, c2Stock))
	handler := NewHandler(svc, mode, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}/cart", handler.HandleGetCart)
	mux.HandleFunc("POST /users/{id}/cart", handler.HandleAddToCart)
	mux.HandleFunc("GET /users/{id}/orders", handler.HandleListUserOrders)
	mux.HandleFunc("POST /users/{id}/orders", handler.HandlePlaceOrder)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGetOrder)
	mux.HandleFunc("POST /orders/{id}/checkout", handler.HandleCheckout)
	mux.HandleFunc("POST /warehouses", handler.HandleAddWarehouse)
	mux.HandleFunc("DELETE /warehouses/{id}", handler.HandleRemoveWarehouse)
	return mux, svc
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderResponse {
	t.Helper()

	var resp orderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_OrderFlow(t *testing.T) {
	mux, svc := newTestHandler(t, payment.Static(true), 50)

	rec := do(mux, http.MethodPost, "/users/1/cart", `{"category_id":"C1","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cart cartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	assert.Equal(t, map[string]int{"C1": 2}, cart.Items)

	rec = do(mux, http.MethodPost, "/users/1/orders?strategy=nearest", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeOrder(t, rec)
	assert.Equal(t, domain.OrderStatusCreated, placed.Status)
	assert.Equal(t, "W1", placed.WarehouseID)
	assert.Equal(t, Invoice{TotalItemPrice: 200, TotalTax: 10, TotalFinalPrice: 210}, placed.Invoice)
	assert.Nil(t, placed.Payment)

	rec = do(mux, http.MethodPost, "/orders/"+placed.ID+"/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	checkedOut := decodeOrder(t, rec)
	assert.Equal(t, domain.OrderStatusCompleted, checkedOut.Status)
	require.NotNil(t, checkedOut.Payment)
	assert.True(t, checkedOut.Payment.Success)

	w, err := svc.Warehouse("W1")
	require.NoError(t, err)
	assert.Equal(t, 98, w.Inventory().Count("C1"))

	rec = do(mux, http.MethodGet, "/users/1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	assert.Empty(t, cart.Items)

	rec = do(mux, http.MethodGet, "/users/1/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []orderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, placed.ID, listed[0].ID)

	rec = do(mux, http.MethodPost, "/orders/"+placed.ID+"/checkout", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		mode       payment.Mode
		c2Stock    int
		setup      []string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown user",
			method:     http.MethodGet,
			path:       "/users/404/cart",
			wantStatus: http.StatusNotFound,
			wantError:  "user not found",
		},
		{
			name:       "invalid quantity",
			method:     http.MethodPost,
			path:       "/users/1/cart",
			body:       `{"category_id":"C1","quantity":0}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "quantity must be positive",
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			path:       "/users/1/cart",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "empty cart",
			method:     http.MethodPost,
			path:       "/users/1/orders",
			wantStatus: http.StatusBadRequest,
			wantError:  "cart is empty",
		},
		{
			name:       "unknown strategy",
			setup:      []string{`{"category_id":"C1","quantity":1}`},
			method:     http.MethodPost,
			path:       "/users/1/orders",
			body:       `{"strategy":"cheapest"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "unknown selection strategy",
		},
		{
			name:       "unknown warehouse",
			setup:      []string{`{"category_id":"C1","quantity":1}`},
			method:     http.MethodPost,
			path:       "/users/1/orders",
			body:       `{"warehouse_id":"W9"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "warehouse not found",
		},
		{
			name:       "category the warehouse cannot price",
			setup:      []string{`{"category_id":"C9","quantity":1}`},
			method:     http.MethodPost,
			path:       "/users/1/orders",
			body:       `{"warehouse_id":"W1"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "unknown category",
		},
		{
			name:       "cart quantity overflow",
			setup:      []string{`{"category_id":"C1","quantity":9223372036854775807}`},
			method:     http.MethodPost,
			path:       "/users/1/cart",
			body:       `{"category_id":"C1","quantity":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "quantity too large",
		},
		{
			name:       "order total overflow",
			setup:      []string{`{"category_id":"C1","quantity":9223372036854775807}`},
			method:     http.MethodPost,
			path:       "/users/1/orders",
			body:       `{"warehouse_id":"W1"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "order total out of range",
		},
		{
			name:       "unknown order",
			method:     http.MethodGet,
			path:       "/orders/missing",
			wantStatus: http.StatusNotFound,
			wantError:  "order not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := tt.mode
			if mode == nil {
				mode = payment.Static(true)
			}
			mux, _ := newTestHandler(t, mode, 50)
			for _, body := range tt.setup {
				require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/users/1/cart", body).Code)
			}

			rec := do(mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestHandler_CheckoutFailures(t *testing.T) {
	t.Run("payment declined", func(t *testing.T) {
		mux, svc := newTestHandler(t, payment.Static(false), 50)
		require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/users/1/cart", `{"category_id":"C1","quantity":2}`).Code)
		placed := decodeOrder(t, do(mux, http.MethodPost, "/users/1/orders", `{"warehouse_id":"W1"}`))

		rec := do(mux, http.MethodPost, "/orders/"+placed.ID+"/checkout", "")
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)

		order, err := svc.Order(placed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPaymentFailed, order.Status())
		assert.Equal(t, 100, order.Warehouse.Inventory().Count("C1"))
		assert.Equal(t, map[string]int{"C1": 2}, order.User.Cart().Items())
	})

	t.Run("insufficient stock", func(t *testing.T) {
		mux, svc := newTestHandler(t, payment.Static(true), 3)
		require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/users/1/cart", `{"category_id":"C2","quantity":5}`).Code)
		placed := decodeOrder(t, do(mux, http.MethodPost, "/users/1/orders", `{"strategy":"capacity"}`))

		rec := do(mux, http.MethodPost, "/orders/"+placed.ID+"/checkout", "")
		assert.Equal(t, http.StatusConflict, rec.Code)

		order, err := svc.Order(placed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusStockUnavailable, order.Status())
		assert.Equal(t, 3, order.Warehouse.Inventory().Count("C2"))
	})
}
