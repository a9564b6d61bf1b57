package inventory

import "regexp"

var keyUnsafe = regexp.MustCompile(`[^A-Za-z0-9]`)

// SanitizeKey turns a display name into a document key: every character outside
// [A-Za-z0-9] becomes '_'.
func SanitizeKey(name string) string {
	return keyUnsafe.ReplaceAllString(name, "_")
}

// ResolveStock applies the stock fallback chain: stock, then legacy currentStock, then 0.
func ResolveStock(stock, currentStock *int64) int64 {
	if stock != nil {
		return *stock
	}
	if currentStock != nil {
		return *currentStock
	}
	return 0
}
