package model

import "time"

type Order struct {
	ID        string    `json:"id"`
	Customer  string    `json:"customer"`
	Phone     string    `json:"phone"`
	Model     string    `json:"model"`
	Service   string    `json:"service"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID      string    `json:"id"`
	OrderID string    `json:"order_id"`
	Amount  float64   `json:"amount"`
	Method  string    `json:"method"`
	Status  string    `json:"status"`
	PaidAt  time.Time `json:"paid_at"`
}
