package pricing

import (
	"testing"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batteryTag() model.ServiceCategory {
	return model.ServiceCategory{
		Name: "AY Battery Tag",
		Entries: []model.CatalogEntry{
			{Model: "11 - 11 Pro Max", Price: model.AmountPrice(7000)},
			{Model: "12 - 12 Pro Max", Price: model.AmountPrice(8500)},
			{Model: "13 Pro / 13 Pro Max", Price: model.AmountPrice(9500)},
			{Model: "SE 2", Price: model.Price{Text: "Call us"}},
		},
	}
}

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		want     float64
		wantText string
		found    bool
	}{
		{name: "range upper bound", selected: "iPhone 12 Pro Max", want: 8500, found: true},
		// Variant-blind: a Mini resolves to the generation's range entry.
		{name: "variant outside range", selected: "iPhone 12 Mini", want: 8500, found: true},
		{name: "brand case insensitive", selected: "IPHONE 11", want: 7000, found: true},
		{name: "slash range", selected: "iPhone 13", want: 9500, found: true},
		{name: "no brand prefix", selected: "13 pro", want: 9500, found: true},
		{name: "plain label digit run", selected: "iPhone SE 2", wantText: "Call us", found: true},
		{name: "empty", selected: "", found: false},
		{name: "no digits", selected: "others", found: false},
		{name: "unknown generation", selected: "iPhone 15", found: false},
		{name: "digits must match exactly", selected: "iPhone 1", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := ResolvePrice(batteryTag(), tt.selected)
			require.Equal(t, tt.found, ok)
			if !tt.found {
				assert.Equal(t, model.Price{}, price)
				return
			}
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, price.Text)
				return
			}
			require.True(t, price.IsAmount())
			assert.Equal(t, tt.want, *price.Amount)
		})
	}
}

func TestResolvePriceFirstMatchWins(t *testing.T) {
	cat := model.ServiceCategory{
		Name: "Camera Lens",
		Entries: []model.CatalogEntry{
			{Model: "13 - 13 Mini", Price: model.AmountPrice(2000)},
			{Model: "13 Pro / 13 Pro Max", Price: model.AmountPrice(3000)},
		},
	}

	// The Pro Max has its own entry, but the first generation match is returned.
	price, ok := ResolvePrice(cat, "iPhone 13 Pro Max")
	require.True(t, ok)
	assert.Equal(t, 2000.0, *price.Amount)
}

func TestRangeUsesLeadingDigitsOfFirstPart(t *testing.T) {
	cat := model.ServiceCategory{
		Name: "Screen",
		Entries: []model.CatalogEntry{
			{Model: "Pro 14 - 15", Price: model.AmountPrice(1)},
		},
	}

	_, ok := ResolvePrice(cat, "iPhone 14")
	assert.False(t, ok)
}

func TestParseSelection(t *testing.T) {
	assert.Equal(t, Selection{Number: "13", Variant: "pro max"}, ParseSelection("iPhone", "  iPhone 13 Pro Max "))
	assert.Equal(t, Selection{Number: "12"}, ParseSelection("iPhone", "iphone 12"))
	assert.Equal(t, Selection{Variant: "others"}, ParseSelection("iPhone", "Others"))
	assert.Equal(t, Selection{Number: "22", Variant: "galaxy s ultra"}, ParseSelection("Samsung", "Samsung Galaxy S22 Ultra"))
}

func TestResolverCustomBrand(t *testing.T) {
	cat := model.ServiceCategory{
		Name:    "Screen",
		Entries: []model.CatalogEntry{{Model: "S22 / S22 Ultra", Price: model.AmountPrice(100)}},
	}

	// "s22" has no leading digits, so a range starting with a letter never matches.
	_, ok := Resolver{Brand: "Samsung"}.Resolve(cat, "Samsung Galaxy S22")
	assert.False(t, ok)
}
