package domain

type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "CREATED"
	OrderStatusPaid             OrderStatus = "PAID"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
	OrderStatusStockUnavailable OrderStatus = "STOCK_UNAVAILABLE"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated: {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusStockUnavailable},
	OrderStatusPaid:    {OrderStatusCompleted},
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusPaymentFailed || s == OrderStatusStockUnavailable
}

func (s OrderStatus) String() string {
	return string(s)
}

type OrderLine struct {
	CategoryID string `json:"category_id"`
	Quantity   int    `json:"quantity"`
}
