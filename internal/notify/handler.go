package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/fulfillment/internal/domain"
)

// ErrMalformedEvent marks payloads that can never be processed. The notifier
// commits past them.
var ErrMalformedEvent = errors.New("malformed checkout event")

// Notification is what the customer is told about a checkout.
type Notification struct {
	OrderID string
	UserID  string
	Subject string
	Body    string
}

type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the log instead of delivering them.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(_ context.Context, n Notification) error {
	s.Logger.Info("notification sent", "order_id", n.OrderID, "user_id", n.UserID, "subject", n.Subject)
	return nil
}

// Handler turns order lifecycle events into customer notifications.
type Handler struct {
	sink   Sink
	logger *slog.Logger
}

func NewHandler(sink Sink, logger *slog.Logger) *Handler {
	return &Handler{
		sink:   sink,
		logger: logger,
	}
}

func (h *Handler) Handle(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderCheckedOutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	h.logger.Info("processing checkout event", "key", key, "order_id", event.OrderID, "status", event.Status)

	n, err := notificationFor(event)
	if err != nil {
		return err
	}

	if err := h.sink.Send(ctx, n); err != nil {
		return fmt.Errorf("send notification for order %s: %w", event.OrderID, err)
	}
	return nil
}

func notificationFor(event domain.OrderCheckedOutEvent) (Notification, error) {
	n := Notification{OrderID: event.OrderID, UserID: event.UserID}

	units := 0
	for _, line := range event.Lines {
		units += line.Quantity
	}

	switch event.Status {
	case domain.OrderStatusCompleted:
		n.Subject = "Order Confirmation: " + event.OrderID
		n.Body = fmt.Sprintf("Your order %s of %d items is confirmed. Total charged: %d.", event.OrderID, units, event.Total)
	case domain.OrderStatusPaymentFailed:
		n.Subject = "Payment Failed: " + event.OrderID
		n.Body = fmt.Sprintf("Payment for order %s did not go through. Your cart still holds the items.", event.OrderID)
	case domain.OrderStatusStockUnavailable:
		n.Subject = "Order Not Fulfilled: " + event.OrderID
		n.Body = fmt.Sprintf("Warehouse %s could not fulfill order %s. You were not charged.", event.WarehouseID, event.OrderID)
	default:
		return Notification{}, fmt.Errorf("order %s has status %q: %w", event.OrderID, event.Status, ErrMalformedEvent)
	}

	return n, nil
}
