package service

import (
	"context"
	"errors"

	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
)

// BasketService manages the caller's basket. There are no stock checks.
type BasketService struct {
	baskets  *repository.BasketRepo
	products *repository.ProductRepo
}

func NewBasketService(baskets *repository.BasketRepo, products *repository.ProductRepo) *BasketService {
	return &BasketService{baskets: baskets, products: products}
}

// Get returns the caller's basket, creating it on first access.
func (s *BasketService) Get(ctx context.Context, caller Caller) (model.Basket, error) {
	if err := requireUser(caller); err != nil {
		return model.Basket{}, err
	}
	id, err := s.baskets.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		return model.Basket{}, err
	}
	lines, err := s.baskets.Lines(ctx, id)
	if err != nil {
		return model.Basket{}, err
	}
	return model.Basket{ID: id, Lines: lines}, nil
}

// AddItem adds quantity of a product; adding a product already in the
// basket raises that line's quantity.
func (s *BasketService) AddItem(ctx context.Context, caller Caller, productID uint64, quantity int) (model.Basket, error) {
	if err := requireUser(caller); err != nil {
		return model.Basket{}, err
	}
	if quantity < 1 {
		return model.Basket{}, invalid("quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return model.Basket{}, invalid("quantity must be at most %d", MaxLineQuantity)
	}
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return model.Basket{}, err
	}
	if !exists {
		return model.Basket{}, repository.ErrProductNotFound
	}
	id, err := s.baskets.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		return model.Basket{}, err
	}
	if err := s.baskets.AddItem(ctx, id, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrOutOfRange) {
			return model.Basket{}, invalid("quantity of product %d is too large", productID)
		}
		return model.Basket{}, err
	}
	lines, err := s.baskets.Lines(ctx, id)
	if err != nil {
		return model.Basket{}, err
	}
	return model.Basket{ID: id, Lines: lines}, nil
}

// Clear empties the caller's basket.
func (s *BasketService) Clear(ctx context.Context, caller Caller) error {
	if err := requireUser(caller); err != nil {
		return err
	}
	id, err := s.baskets.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		return err
	}
	return s.baskets.Clear(ctx, id)
}
