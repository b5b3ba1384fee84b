package sku

import "time"

// SKU is a cached purchasable product row for one ingredient. Rows expire
// after the configured TTL and are re-fetched from the retailer; expired
// rows never reach the optimizer.
type SKU struct {
	ID           int64   `json:"id"`
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	Size         string  `json:"size,omitempty"`
	Price        float64 `json:"price"`
	PricePerUnit string  `json:"price_per_unit,omitempty"`
	RetailerSlug string  `json:"retailer_slug,omitempty"`
	PostalCode   string  `json:"postal_code,omitempty"`

	// QuantityInBaseUnit is the pack size converted to the ingredient's
	// base unit. Zero means not yet converted; PackQuantity then falls back
	// to parsing the raw size string.
	QuantityInBaseUnit float64 `json:"quantity_in_base_unit,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PackQuantity is the ingredient amount one purchased pack supplies, in the
// ingredient's base unit.
func (s SKU) PackQuantity() float64 {
	if s.QuantityInBaseUnit > 0 {
		return s.QuantityInBaseUnit
	}
	return ParseSize(s.Size)
}
