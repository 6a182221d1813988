package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending is the status every order is created with.  No other
// transitions exist yet.
const OrderStatusPending = "Pending"

// Order is a placed order header.  Its items are a frozen price snapshot
// taken at checkout; later catalog changes never touch them.
//
// Fields:
//  TotalProductsPrice – sum of the items' TotalPrice.
//  ShippingPrice      – supplied by the client at checkout.
//  TotalPrice         – TotalProductsPrice + ShippingPrice.
type Order struct {
	ID                 uint64          `json:"id"`                   // orders.id
	UserID             uint64          `json:"user_id"`              // orders.user_id
	Region             string          `json:"region"`               // orders.region
	Locality           string          `json:"locality"`             // orders.locality
	TotalProductsPrice decimal.Decimal `json:"total_products_price"` // orders.total_products_price
	ShippingPrice      decimal.Decimal `json:"shipping_price"`       // orders.shipping_price
	TotalPrice         decimal.Decimal `json:"total_price"`          // orders.total_price
	Status             string          `json:"status"`               // orders.status
	CreatedAt          time.Time       `json:"created_at"`           // orders.created_at
	Items              []OrderItem     `json:"items"`
}

// OrderItem is one priced line of an order.
type OrderItem struct {
	ID         uint64          `json:"id"`          // order_items.id
	OrderID    uint64          `json:"order_id"`    // order_items.order_id
	ProductID  uint64          `json:"product_id"`  // order_items.product_id
	Quantity   int             `json:"quantity"`    // order_items.quantity
	UnitPrice  decimal.Decimal `json:"unit_price"`  // order_items.unit_price
	TotalPrice decimal.Decimal `json:"total_price"` // order_items.total_price
}
