package dto

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentRecorded    = "PaymentRecorded"
)

type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type StatusChangedPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type OrderFilter struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

type PaymentFilter struct {
	OrderID string `json:"order_id"`
	Limit   int    `json:"limit"`
}
