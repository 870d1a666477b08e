package domain

import "time"

type OrderCheckedOutEvent struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	WarehouseID string      `json:"warehouse_id"`
	Status      OrderStatus `json:"status"`
	Lines       []OrderLine `json:"lines"`
	Total       int64       `json:"total"`
	Timestamp   time.Time   `json:"timestamp"`
}
