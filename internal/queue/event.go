// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher/consumer that move them.
package queue

// OrderPlacedQueue is the durable queue order events are published to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published after a checkout commits. It carries
// enough for downstream consumers to log, notify or feed analytics
// without querying the primary database. Amounts are decimal strings.
type OrderPlacedEvent struct {
	OrderID            uint64           `json:"order_id"`
	UserID             uint64           `json:"user_id"`
	Region             string           `json:"region"`
	Locality           string           `json:"locality"`
	Items              []OrderLineEvent `json:"items"`
	TotalProductsPrice string           `json:"total_products_price"`
	ShippingPrice      string           `json:"shipping_price"`
	TotalPrice         string           `json:"total_price"`
	Status             string           `json:"status"`
	PlacedAt           string           `json:"placed_at"`
}

// OrderLineEvent is one priced line of an OrderPlacedEvent.
type OrderLineEvent struct {
	ProductID  uint64 `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}
