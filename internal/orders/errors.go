package orders

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to order")
	ErrInvalidOrderState = errors.New("invalid order state")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvoiceOverflow   = errors.New("invoice total out of range")
	ErrInvalidCatalog    = errors.New("invalid warehouse catalog")
)
