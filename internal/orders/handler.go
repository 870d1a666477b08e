package orders

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/fulfillment/internal/cart"
	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/payment"
	"github.com/joao-fontenele/fulfillment/internal/users"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

type Handler struct {
	service    *Service
	payments   payment.Mode
	roundRobin *warehouse.RoundRobin
	logger     *slog.Logger
}

func NewHandler(service *Service, payments payment.Mode, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		payments:   payments,
		roundRobin: &warehouse.RoundRobin{},
		logger:     logger,
	}
}

type orderResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	WarehouseID     string             `json:"warehouse_id"`
	Lines           []domain.OrderLine `json:"lines"`
	DeliveryAddress domain.Address     `json:"delivery_address"`
	Invoice         Invoice            `json:"invoice"`
	Payment         *payment.Payment   `json:"payment,omitempty"`
	Status          domain.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newOrderResponse(o *Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		UserID:          o.User.ID,
		WarehouseID:     o.Warehouse.ID,
		Lines:           o.OrderLines(),
		DeliveryAddress: o.DeliveryAddress,
		Invoice:         o.Invoice(),
		Payment:         o.Payment(),
		Status:          o.Status(),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt(),
	}
}

type cartResponse struct {
	UserID string         `json:"user_id"`
	Items  map[string]int `json:"items"`
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, cartResponse{UserID: user.ID, Items: user.Cart().Items()})
}

type addToCartRequest struct {
	CategoryID string `json:"category_id"`
	Quantity   int    `json:"quantity"`
}

func (h *Handler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CategoryID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.AddToCart(user, req.CategoryID, req.Quantity); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("item added to cart", "user_id", user.ID, "category_id", req.CategoryID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, cartResponse{UserID: user.ID, Items: user.Cart().Items()})
}

type placeOrderRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Strategy    string `json:"strategy"`
}

// HandlePlaceOrder places an order from the user's cart against either an
// explicit warehouse or one picked by a selection strategy.
func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Strategy == "" {
		req.Strategy = r.URL.Query().Get("strategy")
	}

	var (
		target *warehouse.Warehouse
		err    error
	)
	if req.WarehouseID != "" {
		target, err = h.service.Warehouse(req.WarehouseID)
	} else {
		var sel warehouse.Selector
		sel, err = warehouse.ParseStrategy(req.Strategy, user.Address.Location, h.roundRobin)
		if err == nil {
			target, err = h.service.SelectWarehouse(sel)
		}
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	order, err := h.service.PlaceOrder(user, target)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) HandleListUserOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	resp := make([]orderResponse, 0)
	for _, id := range user.OrderIDs() {
		order, err := h.service.Order(id)
		if err != nil {
			h.logger.Error("order listed for user is missing", "error", err, "user_id", user.ID, "order_id", id)
			continue
		}
		resp = append(resp, newOrderResponse(order))
	}

	h.logger.Info("orders listed", "user_id", user.ID, "count", len(resp))
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.Order(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.Order(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := h.service.Checkout(r.Context(), order, h.payments); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return nil, false
	}

	user, err := h.service.LookupUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	return user, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, warehouse.ErrWarehouseNotFound):
		h.writeError(w, http.StatusNotFound, "warehouse not found")
	case errors.Is(err, warehouse.ErrDuplicateWarehouse):
		h.writeError(w, http.StatusConflict, "warehouse already exists")
	case errors.Is(err, ErrInvalidCatalog):
		h.writeError(w, http.StatusBadRequest, "invalid warehouse catalog")
	case errors.Is(err, inventory.ErrDuplicateCategory):
		h.writeError(w, http.StatusBadRequest, "duplicate category")
	case errors.Is(err, inventory.ErrInvalidPrice):
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
	case errors.Is(err, warehouse.ErrNoWarehouseAvailable):
		h.writeError(w, http.StatusServiceUnavailable, "no warehouse available")
	case errors.Is(err, warehouse.ErrUnknownStrategy):
		h.writeError(w, http.StatusBadRequest, "unknown selection strategy")
	case errors.Is(err, inventory.ErrInvalidQuantity):
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
	case errors.Is(err, cart.ErrQuantityTooLarge):
		h.writeError(w, http.StatusBadRequest, "quantity too large")
	case errors.Is(err, ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, inventory.ErrUnknownCategory):
		h.writeError(w, http.StatusUnprocessableEntity, "unknown category")
	case errors.Is(err, ErrInvoiceOverflow):
		h.writeError(w, http.StatusUnprocessableEntity, "order total out of range")
	case errors.Is(err, inventory.ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, ErrInvalidOrderState):
		h.writeError(w, http.StatusConflict, "invalid order state")
	case errors.Is(err, ErrPaymentFailed):
		h.writeError(w, http.StatusPaymentRequired, "payment failed")
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
