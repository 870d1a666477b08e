package payment

import (
	"context"
	"time"
)

// Mode is a payment mechanism. Attempt reports whether the charge went
// through; retries are the caller's decision.
type Mode interface {
	Attempt(ctx context.Context, amount int64) bool
}

// ModeFunc adapts a function to Mode.
type ModeFunc func(ctx context.Context, amount int64) bool

func (f ModeFunc) Attempt(ctx context.Context, amount int64) bool {
	return f(ctx, amount)
}

// Static is a Mode with a fixed outcome.
type Static bool

func (s Static) Attempt(context.Context, int64) bool {
	return bool(s)
}

// Payment records one checkout attempt. A retry gets a new Payment.
type Payment struct {
	Mode        Mode      `json:"-"`
	Amount      int64     `json:"amount"`
	Success     bool      `json:"success"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Make attempts amount through mode and records the outcome.
func Make(ctx context.Context, mode Mode, amount int64) *Payment {
	p := &Payment{
		Mode:        mode,
		Amount:      amount,
		AttemptedAt: time.Now().UTC(),
	}
	p.Success = mode.Attempt(ctx, amount)
	return p
}
