package inventory

import (
	"testing"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "AY_Battery_Tag_12___12_Pro_Max", SanitizeKey("AY Battery Tag 12 - 12 Pro Max"))
	assert.Equal(t, "Back_Glass_8___8_Plus", SanitizeKey("Back Glass 8 / 8 Plus"))
	assert.Equal(t, "abc123", SanitizeKey("abc123"))
	assert.Equal(t, "caf_", SanitizeKey("café"))
}

func TestResolveStock(t *testing.T) {
	five, seven := int64(5), int64(7)

	assert.Equal(t, int64(5), ResolveStock(&five, &seven))
	assert.Equal(t, int64(7), ResolveStock(nil, &seven))
	assert.Equal(t, int64(0), ResolveStock(nil, nil))
}

func TestGenerateFromCatalog(t *testing.T) {
	items := GenerateFromCatalog([]model.ServiceCategory{{
		Name: "Screen",
		Entries: []model.CatalogEntry{
			{Model: "12 - 12 Pro Max", Price: model.AmountPrice(14500)},
			{Model: "15", Price: model.Price{Text: "Call for quote"}},
		},
	}})

	require.Len(t, items, 2)
	assert.Equal(t, "Screen 12 - 12 Pro Max", items[0].Name)
	assert.Equal(t, 14500.0, items[0].Price)
	assert.Nil(t, items[0].Stock)
	assert.Equal(t, 0.0, items[1].Price)
}
