package model

import "github.com/shopspring/decimal"

// BasketItem is a raw (product, quantity) row of a basket.  A basket never
// holds two rows for the same product; repeated adds raise Quantity.
type BasketItem struct {
	ID        uint64 // basket_items.id
	BasketID  uint64 // basket_items.basket_id
	ProductID uint64 // basket_items.product_id
	Quantity  int    // basket_items.quantity
}

// BasketLine is the display projection of a basket item joined with the
// product's current name and price.
type BasketLine struct {
	ProductID uint64          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Basket is the caller-facing view of a basket.
type Basket struct {
	ID    uint64       `json:"id"`
	Lines []BasketLine `json:"lines"`
}
