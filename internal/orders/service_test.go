package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/joao-fontenele/fulfillment/internal/cart"
	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/payment"
	"github.com/joao-fontenele/fulfillment/internal/telemetry"
	"github.com/joao-fontenele/fulfillment/internal/users"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []domain.OrderCheckedOutEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys = append(p.keys, key)
	p.events = append(p.events, event.(domain.OrderCheckedOutEvent))
	return p.err
}

func setupService(t *testing.T, publisher Publisher, warehouses ...*warehouse.Warehouse) (*Service, *users.User) {
	t.Helper()

	user := newUser()
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := telemetry.NewCheckoutMetrics(mp.Meter("test"))
	require.NoError(t, err)

	opts := []Option{WithMetrics(m), WithTaxPolicy(fivePercent)}
	if publisher != nil {
		opts = append(opts, WithPublisher(publisher))
	}

	svc, err := NewService(users.NewMemoryDirectory(user), warehouses, opts...)
	require.NoError(t, err)
	return svc, user
}

func TestService_LookupUser(t *testing.T) {
	svc, user := setupService(t, nil)

	got, err := svc.LookupUser(context.Background(), "1")
	require.NoError(t, err)
	assert.Same(t, user, got)

	_, err = svc.LookupUser(context.Background(), "404")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestService_SelectWarehouse(t *testing.T) {
	t.Run("delegates to selector", func(t *testing.T) {
		w1 := setupWarehouse(t, 1, 1)
		w2 := warehouse.New("W2", domain.Address{}, nil)
		svc, _ := setupService(t, nil, w1, w2)

		got, err := svc.SelectWarehouse(warehouse.Nearest{})
		require.NoError(t, err)
		assert.Same(t, w1, got)
	})

	t.Run("no warehouses", func(t *testing.T) {
		svc, _ := setupService(t, nil)

		_, err := svc.SelectWarehouse(warehouse.ByCapacity{})
		assert.ErrorIs(t, err, warehouse.ErrNoWarehouseAvailable)
	})

	t.Run("removed warehouse is no longer a candidate", func(t *testing.T) {
		w1 := setupWarehouse(t, 1, 1)
		svc, _ := setupService(t, nil, w1)

		assert.True(t, svc.RemoveWarehouse("W1"))
		assert.False(t, svc.RemoveWarehouse("W1"))

		_, err := svc.SelectWarehouse(warehouse.Nearest{})
		assert.ErrorIs(t, err, warehouse.ErrNoWarehouseAvailable)

		require.NoError(t, svc.AddWarehouse(w1))
		assert.ErrorIs(t, svc.AddWarehouse(warehouse.New("W1", domain.Address{}, nil)), warehouse.ErrDuplicateWarehouse)
		got, err := svc.Warehouse("W1")
		require.NoError(t, err)
		assert.Same(t, w1, got)
	})
}

func TestService_FullFlow(t *testing.T) {
	ctx := context.Background()
	w := setupWarehouse(t, 100, 50)
	publisher := &recordingPublisher{}
	svc, _ := setupService(t, publisher, w)

	user, err := svc.LookupUser(ctx, "1")
	require.NoError(t, err)

	selected, err := svc.SelectWarehouse(warehouse.Nearest{Origin: user.Address.Location})
	require.NoError(t, err)

	levels := svc.Inventory(selected)
	require.Len(t, levels, 2)

	require.NoError(t, svc.AddToCart(user, "C1", 2))

	order, err := svc.PlaceOrder(user, selected)
	require.NoError(t, err)
	assert.Equal(t, int64(200), order.Invoice().TotalItemPrice)
	assert.Equal(t, int64(10), order.Invoice().TotalTax)
	assert.Equal(t, int64(210), order.Invoice().TotalFinalPrice)
	assert.Equal(t, []string{order.ID}, user.OrderIDs())

	registered, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.Same(t, order, registered)

	require.NoError(t, svc.Checkout(ctx, order, payment.Static(true)))
	assert.Equal(t, 98, w.Inventory().Count("C1"))
	assert.Empty(t, user.Cart().Items())

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, order.ID, publisher.keys[0])
	assert.Equal(t, domain.OrderStatusCompleted, event.Status)
	assert.Equal(t, "W1", event.WarehouseID)
	assert.Equal(t, int64(210), event.Total)
	assert.Equal(t, []domain.OrderLine{{CategoryID: "C1", Quantity: 2}}, event.Lines)
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("payment failure is published and propagated", func(t *testing.T) {
		w := setupWarehouse(t, 100, 50)
		publisher := &recordingPublisher{}
		svc, user := setupService(t, publisher, w)
		require.NoError(t, svc.AddToCart(user, "C1", 2))
		order, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)

		err = svc.Checkout(ctx, order, payment.Static(false))
		assert.ErrorIs(t, err, ErrPaymentFailed)

		assert.Equal(t, 100, w.Inventory().Count("C1"))
		assert.Equal(t, map[string]int{"C1": 2}, user.Cart().Items())
		require.Len(t, publisher.events, 1)
		assert.Equal(t, domain.OrderStatusPaymentFailed, publisher.events[0].Status)
	})

	t.Run("retry after payment failure uses a new order", func(t *testing.T) {
		w := setupWarehouse(t, 100, 50)
		svc, user := setupService(t, nil, w)
		require.NoError(t, svc.AddToCart(user, "C1", 2))
		failed, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)
		require.ErrorIs(t, svc.Checkout(ctx, failed, payment.Static(false)), ErrPaymentFailed)

		retry, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)
		require.NoError(t, svc.Checkout(ctx, retry, payment.Static(true)))

		assert.Equal(t, 98, w.Inventory().Count("C1"))
		assert.Empty(t, user.Cart().Items())
		assert.Equal(t, []string{failed.ID, retry.ID}, user.OrderIDs())
	})

	t.Run("insufficient stock", func(t *testing.T) {
		w := setupWarehouse(t, 100, 3)
		svc, user := setupService(t, nil, w)
		require.NoError(t, svc.AddToCart(user, "C2", 5))
		order, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)

		err = svc.Checkout(ctx, order, payment.Static(true))
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
		assert.Equal(t, 3, w.Inventory().Count("C2"))
		assert.Equal(t, map[string]int{"C2": 5}, user.Cart().Items())
	})

	t.Run("second checkout publishes nothing", func(t *testing.T) {
		w := setupWarehouse(t, 100, 50)
		publisher := &recordingPublisher{}
		svc, user := setupService(t, publisher, w)
		require.NoError(t, svc.AddToCart(user, "C1", 2))
		order, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)

		require.NoError(t, svc.Checkout(ctx, order, payment.Static(true)))
		assert.ErrorIs(t, svc.Checkout(ctx, order, payment.Static(true)), ErrInvalidOrderState)
		assert.Len(t, publisher.events, 1)
		assert.Equal(t, 98, w.Inventory().Count("C1"))
	})

	t.Run("publish error does not fail checkout", func(t *testing.T) {
		w := setupWarehouse(t, 100, 50)
		publisher := &recordingPublisher{err: errors.New("broker down")}
		svc, user := setupService(t, publisher, w)
		require.NoError(t, svc.AddToCart(user, "C1", 1))
		order, err := svc.PlaceOrder(user, w)
		require.NoError(t, err)

		assert.NoError(t, svc.Checkout(ctx, order, payment.Static(true)))
		assert.Equal(t, domain.OrderStatusCompleted, order.Status())
	})
}

func TestService_PlaceOrder(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		w := setupWarehouse(t, 1, 1)
		svc, user := setupService(t, nil, w)

		_, err := svc.PlaceOrder(user, w)
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.Empty(t, user.OrderIDs())
	})

	t.Run("invalid quantity", func(t *testing.T) {
		svc, user := setupService(t, nil)
		assert.ErrorIs(t, svc.AddToCart(user, "C1", 0), cart.ErrInvalidQuantity)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _ := setupService(t, nil)
		_, err := svc.Order("missing")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
