package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/payment"
	"github.com/joao-fontenele/fulfillment/internal/telemetry"
	"github.com/joao-fontenele/fulfillment/internal/users"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

var tracer = otel.Tracer("orders")

// Publisher receives order lifecycle events after every checkout attempt.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Option func(*Service)

func WithTaxPolicy(tax TaxPolicy) Option {
	return func(s *Service) { s.tax = tax }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *telemetry.CheckoutMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service is the entry point for the order flow: warehouse selection, cart
// updates, order placement and checkout.
type Service struct {
	users     users.Directory
	tax       TaxPolicy
	publisher Publisher
	logger    *slog.Logger
	metrics   *telemetry.CheckoutMetrics

	mu         sync.RWMutex
	warehouses []*warehouse.Warehouse
	orders     map[string]*Order
}

func NewService(dir users.Directory, warehouses []*warehouse.Warehouse, opts ...Option) (*Service, error) {
	s := &Service{
		users:      dir,
		tax:        FlatRate{BasisPoints: DefaultTaxBasisPoints},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		warehouses: append([]*warehouse.Warehouse(nil), warehouses...),
		orders:     make(map[string]*Order),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		m, err := telemetry.NewCheckoutMetrics(otel.Meter("orders"))
		if err != nil {
			return nil, fmt.Errorf("create checkout metrics: %w", err)
		}
		s.metrics = m
	}

	return s, nil
}

func (s *Service) LookupUser(ctx context.Context, id string) (*users.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) AddWarehouse(w *warehouse.Warehouse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.warehouses {
		if existing.ID == w.ID {
			return fmt.Errorf("warehouse %s: %w", w.ID, warehouse.ErrDuplicateWarehouse)
		}
	}

	s.warehouses = append(s.warehouses, w)
	return nil
}

func (s *Service) RemoveWarehouse(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.warehouses {
		if w.ID == id {
			s.warehouses = append(s.warehouses[:i], s.warehouses[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Service) Warehouses() []*warehouse.Warehouse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*warehouse.Warehouse(nil), s.warehouses...)
}

func (s *Service) Warehouse(id string) (*warehouse.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.warehouses {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("warehouse %s: %w", id, warehouse.ErrWarehouseNotFound)
}

// WarehouseInventory lets the service back the inventory stock handler.
func (s *Service) WarehouseInventory(id string) (*inventory.Inventory, error) {
	w, err := s.Warehouse(id)
	if err != nil {
		return nil, err
	}
	return w.Inventory(), nil
}

func (s *Service) SelectWarehouse(sel warehouse.Selector) (*warehouse.Warehouse, error) {
	return sel.Select(s.Warehouses())
}

func (s *Service) Inventory(w *warehouse.Warehouse) []domain.StockLevel {
	return w.Inventory().Stock()
}

func (s *Service) AddToCart(user *users.User, categoryID string, count int) error {
	return user.Cart().AddItem(categoryID, count)
}

func (s *Service) PlaceOrder(user *users.User, w *warehouse.Warehouse) (*Order, error) {
	order, err := newOrder(user, w, s.tax)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	user.AppendOrder(order.ID)

	invoice := order.Invoice()
	s.logger.Info("order placed",
		"order_id", order.ID,
		"user_id", user.ID,
		"warehouse_id", w.ID,
		"total", invoice.TotalFinalPrice,
	)
	return order, nil
}

func (s *Service) Order(id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	return order, nil
}

func (s *Service) Checkout(ctx context.Context, order *Order, mode payment.Mode) error {
	ctx, span := tracer.Start(ctx, "checkout",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("warehouse.id", order.Warehouse.ID),
		),
	)
	defer span.End()

	start := time.Now()
	err := order.Checkout(ctx, mode)
	status := order.Status()

	if errors.Is(err, ErrInvalidOrderState) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("checkout rejected", "order_id", order.ID, "status", status)
		return err
	}

	s.metrics.Record(ctx, status.String(), time.Since(start))
	span.SetAttributes(attribute.String("order.status", status.String()))
	s.publish(ctx, order, status)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("checkout failed", "error", err, "order_id", order.ID, "status", status)
		return err
	}

	s.logger.Info("checkout completed", "order_id", order.ID, "user_id", order.User.ID)
	return nil
}

func (s *Service) publish(ctx context.Context, order *Order, status domain.OrderStatus) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderCheckedOutEvent{
		OrderID:     order.ID,
		UserID:      order.User.ID,
		WarehouseID: order.Warehouse.ID,
		Status:      status,
		Lines:       order.OrderLines(),
		Total:       order.Invoice().TotalFinalPrice,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish checkout event", "error", err, "order_id", order.ID)
	}
}
