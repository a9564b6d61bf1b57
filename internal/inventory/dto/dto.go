package dto

// SeedItem is a generated inventory record before it is written. Stock and the
// legacy CurrentStock are optional; see inventory.ResolveStock.
type SeedItem struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Model        string  `json:"model"`
	Price        float64 `json:"price"`
	Cost         float64 `json:"cost"`
	Stock        *int64  `json:"stock,omitempty"`
	CurrentStock *int64  `json:"currentStock,omitempty"`
}
