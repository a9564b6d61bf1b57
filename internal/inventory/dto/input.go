package dto

type AdjustStockInput struct {
	ItemIDs []string `json:"item_ids"`
	Delta   int64    `json:"delta"`
	// MaxBatchSize caps len(ItemIDs). Zero means the store ceiling.
	MaxBatchSize int    `json:"max_batch_size"`
	Reason       string `json:"reason"`
	UserID       string `json:"-"`
}

type SeedInput struct {
	Items []SeedItem `json:"items"`
	// FromCatalog seeds one line per price table entry when Items is empty.
	FromCatalog bool `json:"from_catalog"`
}
