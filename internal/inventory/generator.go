package inventory

import (
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/model"
)

// GenerateFromCatalog turns every priced catalog entry into a stock line named
// "<category> <model range>". Entries with a text price are seeded at price 0.
func GenerateFromCatalog(categories []model.ServiceCategory) []dto.SeedItem {
	var items []dto.SeedItem
	for _, cat := range categories {
		for _, entry := range cat.Entries {
			item := dto.SeedItem{
				Name:     cat.Name + " " + entry.Model,
				Category: cat.Name,
				Model:    entry.Model,
			}
			if entry.Price.IsAmount() {
				item.Price = *entry.Price.Amount
			}
			items = append(items, item)
		}
	}
	return items
}
