package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// OrderRepo persists orders and their items.  Items are written once, at
// checkout, and never updated.  All timestamps are stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = "id, user_id, region, locality, total_products_price, shipping_price, total_price, status, created_at"

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Region, &o.Locality,
		&o.TotalProductsPrice, &o.ShippingPrice, &o.TotalPrice, &o.Status, &o.CreatedAt)
	return o, err
}

// CreateTx inserts the order header within the scope of an existing
// transaction and populates the generated ID.  The caller must commit or
// roll back the transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, region, locality, total_products_price, shipping_price, total_price, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.UserID, o.Region, o.Locality,
		o.TotalProductsPrice, o.ShippingPrice, o.TotalPrice, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsBulkTx inserts all order_items rows of one order in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price) VALUES `
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, orderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns an order with its items, or ErrOrderNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx reads an order back inside the transaction that created it.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Order, error) {
	return r.getByID(ctx, tx, id)
}

func (r *OrderRepo) getByID(ctx context.Context, q querier, id uint64) (*model.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	orders := []model.Order{o}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns the user's orders, newest first, with items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListAll returns every order, newest first, with items.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if err := r.attachItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all given orders with one IN query and
// assigns them in place.
func (r *OrderRepo) attachItems(ctx context.Context, q querier, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	args := make([]any, len(orders))
	index := make(map[uint64]int, len(orders))
	for i := range orders {
		args[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}
	rows, err := q.QueryContext(ctx,
		"SELECT id, order_id, product_id, quantity, unit_price, total_price FROM order_items WHERE order_id IN ("+placeholders(len(args))+") ORDER BY order_id, id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}
