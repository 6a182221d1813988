package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backoffice/internal/blob"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
)

// ProductService is the product catalog.
type ProductService struct {
	products *repository.ProductRepo
	images   *repository.ImageRepo
	blobs    blob.Store
	now      func() time.Time
}

func NewProductService(products *repository.ProductRepo, images *repository.ImageRepo, blobs blob.Store) *ProductService {
	return &ProductService{products: products, images: images, blobs: blobs, now: time.Now}
}

// ProductInput is the writable part of a product. IsActive defaults to
// true on create and is left unchanged on update when nil.
type ProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	IsActive    *bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	return checkAmount("price", in.Price)
}

// Create adds a product stamped with the admin caller and the current time.
func (s *ProductService) Create(ctx context.Context, caller Caller, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &model.Product{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		CreatedByUserID: caller.UserID,
		IsActive:        in.IsActive == nil || *in.IsActive,
		CreatedAt:       s.now().UTC().Truncate(time.Second),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	p.Images = []model.ProductImage{}
	return p, nil
}

// Get returns a product with its images in display order.
func (s *ProductService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Images, err = s.images.ListByProduct(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListActive returns the active products without their images.
func (s *ProductService) ListActive(ctx context.Context) ([]model.Product, error) {
	return s.products.ListActive(ctx)
}

// Update rewrites name, description and price of an existing product.
func (s *ProductService) Update(ctx context.Context, caller Caller, id uint64, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Description = in.Description
	current.Price = in.Price
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}
	if err := s.products.Update(ctx, *current); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete hard-deletes a product. Image rows cascade in the database; their
// files are removed afterwards on a best-effort basis.
func (s *ProductService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	images, err := s.images.ListByProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range images {
		discardBlob(ctx, s.blobs, blob.ProductKey(img.ProductID, img.FileName))
	}
	return nil
}
