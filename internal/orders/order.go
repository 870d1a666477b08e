package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/payment"
	"github.com/joao-fontenele/fulfillment/internal/users"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

// Order binds a user, a warehouse and a snapshot of the user's cart taken
// when the order was placed. The snapshot never changes afterwards.
type Order struct {
	ID              string
	User            *users.User
	Warehouse       *warehouse.Warehouse
	DeliveryAddress domain.Address
	CreatedAt       time.Time

	mu        sync.Mutex
	lines     map[string]int
	tax       TaxPolicy
	invoice   Invoice
	payment   *payment.Payment
	status    domain.OrderStatus
	updatedAt time.Time
}

func newOrder(user *users.User, w *warehouse.Warehouse, tax TaxPolicy) (*Order, error) {
	lines := user.Cart().Items()
	if len(lines) == 0 {
		return nil, fmt.Errorf("user %s: %w", user.ID, ErrEmptyCart)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              uuid.New().String(),
		User:            user,
		Warehouse:       w,
		DeliveryAddress: user.Address,
		CreatedAt:       now,
		lines:           lines,
		tax:             tax,
		status:          domain.OrderStatusCreated,
		updatedAt:       now,
	}

	if err := o.invoice.Generate(o.lines, w, tax); err != nil {
		return nil, fmt.Errorf("generate invoice: %w", err)
	}

	return o, nil
}

// Checkout debits the warehouse, charges mode and then either clears the
// user's cart or restocks the snapshot. It runs at most once per order.
func (o *Order) Checkout(ctx context.Context, mode payment.Mode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != domain.OrderStatusCreated {
		return fmt.Errorf("checkout order %s in status %s: %w", o.ID, o.status, ErrInvalidOrderState)
	}

	if err := o.Warehouse.RemoveItems(o.lines); err != nil {
		o.transition(domain.OrderStatusStockUnavailable)
		return fmt.Errorf("debit inventory: %w", err)
	}

	o.payment = payment.Make(ctx, mode, o.invoice.TotalFinalPrice)
	if !o.payment.Success {
		o.transition(domain.OrderStatusPaymentFailed)
		o.Warehouse.AddItems(o.lines)
		return fmt.Errorf("order %s: %w", o.ID, ErrPaymentFailed)
	}

	o.transition(domain.OrderStatusPaid)
	o.User.Cart().Empty()
	o.transition(domain.OrderStatusCompleted)
	return nil
}

// RegenerateInvoice reprices the snapshot against the warehouse's current
// prices.
func (o *Order) RegenerateInvoice() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.invoice.Generate(o.lines, o.Warehouse, o.tax); err != nil {
		return fmt.Errorf("generate invoice: %w", err)
	}
	return nil
}

// transition is only called along edges allowed by the status table.
func (o *Order) transition(next domain.OrderStatus) {
	if !o.status.CanTransitionTo(next) {
		panic(fmt.Sprintf("orders: illegal transition %s -> %s", o.status, next))
	}
	o.status = next
	o.updatedAt = time.Now().UTC()
}

func (o *Order) Status() domain.OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.status
}

func (o *Order) Invoice() Invoice {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.invoice
}

// Payment returns the last checkout attempt, nil before checkout.
func (o *Order) Payment() *payment.Payment {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.payment == nil {
		return nil
	}
	p := *o.payment
	return &p
}

func (o *Order) UpdatedAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.updatedAt
}

// Lines returns a copy of the snapshot.
func (o *Order) Lines() map[string]int {
	lines := make(map[string]int, len(o.lines))
	for id, n := range o.lines {
		lines[id] = n
	}
	return lines
}

// OrderLines returns the snapshot ordered by category ID.
func (o *Order) OrderLines() []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(o.lines))
	for id, n := range o.lines {
		lines = append(lines, domain.OrderLine{CategoryID: id, Quantity: n})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CategoryID < lines[j].CategoryID })
	return lines
}
