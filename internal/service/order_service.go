package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/shop-backoffice/internal/logger"
	"github.com/iliyamo/shop-backoffice/internal/metrics"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/queue"
	"github.com/iliyamo/shop-backoffice/internal/repository"
)

// OrderEvents receives an event for every committed order.
// *queue.Publisher implements it.
type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// OrderService places and reads orders.
type OrderService struct {
	db       *sql.DB
	baskets  *repository.BasketRepo
	products *repository.ProductRepo
	orders   *repository.OrderRepo
	events   OrderEvents
	now      func() time.Time
}

func NewOrderService(db *sql.DB, baskets *repository.BasketRepo, products *repository.ProductRepo, orders *repository.OrderRepo, events OrderEvents) *OrderService {
	return &OrderService{db: db, baskets: baskets, products: products, orders: orders, events: events, now: time.Now}
}

// CheckoutInput is the delivery address and the client-supplied shipping
// price.
type CheckoutInput struct {
	Region        string
	Locality      string
	ShippingPrice decimal.Decimal
}

// Checkout turns the caller's basket into an order.
//
// Each line is priced with the product's current price, which is frozen
// into the order item. The order header, its items and the basket clear
// share one transaction, so a failure anywhere leaves neither an order nor
// an emptied basket. The order.placed event is published after commit and
// its failure does not affect the result.
func (s *OrderService) Checkout(ctx context.Context, caller Caller, in CheckoutInput) (*model.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	region, locality := strings.TrimSpace(in.Region), strings.TrimSpace(in.Locality)
	if region == "" || locality == "" {
		return nil, invalid("region and locality are required")
	}
	if err := checkAmount("shipping price", in.ShippingPrice); err != nil {
		return nil, err
	}

	basketID, err := s.baskets.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	items, err := s.baskets.ItemsTx(ctx, tx, basketID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		metrics.ObserveCheckout("empty_basket")
		return nil, ErrEmptyBasket
	}

	lines := make([]model.OrderItem, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		p, err := s.products.GetByIDTx(ctx, tx, it.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				metrics.ObserveCheckout("missing_product")
				return nil, fmt.Errorf("%w: product %d", ErrProductMissing, it.ProductID)
			}
			return nil, err
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, model.OrderItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	if total := subtotal.Add(in.ShippingPrice); total.GreaterThan(MaxAmount) {
		metrics.ObserveCheckout("invalid")
		return nil, invalid("order total %s exceeds %s", total.StringFixed(2), MaxAmount.StringFixed(2))
	}

	order := &model.Order{
		UserID:             caller.UserID,
		Region:             region,
		Locality:           locality,
		TotalProductsPrice: subtotal,
		ShippingPrice:      in.ShippingPrice,
		TotalPrice:         subtotal.Add(in.ShippingPrice),
		Status:             model.OrderStatusPending,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.orders.CreateTx(ctx, tx, order); err != nil {
		return nil, s.failed(err)
	}
	if err := s.orders.CreateItemsBulkTx(ctx, tx, order.ID, lines); err != nil {
		return nil, s.failed(err)
	}
	if err := s.baskets.ClearTx(ctx, tx, basketID); err != nil {
		return nil, s.failed(err)
	}
	placed, err := s.orders.GetByIDTx(ctx, tx, order.ID)
	if err != nil {
		return nil, s.failed(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.failed(err)
	}
	committed = true
	metrics.ObserveCheckout("ok")
	logger.Info(ctx, "order placed",
		zap.Uint64("order_id", placed.ID),
		zap.Uint64("user_id", placed.UserID),
		zap.String("total", placed.TotalPrice.StringFixed(2)))

	if s.events != nil {
		go s.publish(context.WithoutCancel(ctx), placed)
	}
	return placed, nil
}

func (s *OrderService) failed(err error) error {
	metrics.ObserveCheckout("error")
	return err
}

// publish runs after the response is on its way; failures are only logged.
func (s *OrderService) publish(ctx context.Context, o *model.Order) {
	ev := queue.OrderPlacedEvent{
		OrderID:            o.ID,
		UserID:             o.UserID,
		Region:             o.Region,
		Locality:           o.Locality,
		TotalProductsPrice: o.TotalProductsPrice.StringFixed(2),
		ShippingPrice:      o.ShippingPrice.StringFixed(2),
		TotalPrice:         o.TotalPrice.StringFixed(2),
		Status:             o.Status,
		PlacedAt:           o.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, queue.OrderLineEvent{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			TotalPrice: it.TotalPrice.StringFixed(2),
		})
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.events.PublishOrderPlaced(pubCtx, ev); err != nil {
		logger.Warn(ctx, "order event not published", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
}

// Get returns an order to its owner or to an admin. Someone else's order
// is forbidden; an unknown id is not found.
func (s *OrderService) Get(ctx context.Context, caller Caller, id uint64) (*model.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	return o, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, caller Caller) ([]model.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, caller.UserID)
}

// ListAll returns every order (admin only).
func (s *OrderService) ListAll(ctx context.Context, caller Caller) ([]model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.orders.ListAll(ctx)
}
