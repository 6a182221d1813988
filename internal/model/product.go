package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry.  Price is an exact decimal (DECIMAL(12,2) in
// MySQL) so that order totals never drift.  Images is only populated by
// reads that embed the product's attachments.
type Product struct {
	ID              uint64          `json:"id"`                 // products.id
	Name            string          `json:"name"`               // products.name
	Description     *string         `json:"description"`        // products.description (nullable)
	Price           decimal.Decimal `json:"price"`              // products.price
	CreatedByUserID uint64          `json:"created_by_user_id"` // products.created_by_user_id
	IsActive        bool            `json:"is_active"`          // products.is_active
	CreatedAt       time.Time       `json:"created_at"`         // products.created_at
	Images          []ProductImage  `json:"images,omitempty"`
}

// ProductImage is the metadata row of one uploaded image.  The bytes live
// in the blob store under products/{ProductID}/{FileName}.  At most one
// image per product has IsMain set.
type ProductImage struct {
	ID        uint64    `json:"id"`         // product_images.id
	ProductID uint64    `json:"product_id"` // product_images.product_id
	FileName  string    `json:"file_name"`  // product_images.file_name
	URL       string    `json:"url"`        // product_images.url
	IsMain    bool      `json:"is_main"`    // product_images.is_main
	SortOrder int       `json:"sort_order"` // product_images.sort_order
	CreatedAt time.Time `json:"created_at"` // product_images.created_at
}
