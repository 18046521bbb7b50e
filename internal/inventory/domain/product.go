// Package domain holds Inventory's catalog and stock entities: products,
// stock items keyed by (product, size), and the append-only stock movement
// log.
package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry POS and reporting read from.
type Product struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand"`
	Active       bool            `json:"active"`
	// HasSizeVariants marks a product whose stock is tracked per size. POS
	// requires a line's size when this is set, rather than silently skipping
	// the stock decrement.
	HasSizeVariants bool `json:"has_size_variants"`
}
