package model

import "time"

type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Model     string    `json:"model"`
	Price     float64   `json:"price"`
	Cost      float64   `json:"cost"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

type StockMovement struct {
	ID        string    `json:"id"`
	ItemIDs   []string  `json:"item_ids"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
