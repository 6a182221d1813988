package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// BasketRepo stores one basket per user (UNIQUE user_id) and its items
// (UNIQUE basket_id, product_id).
type BasketRepo struct {
	db *sql.DB
}

func NewBasketRepo(db *sql.DB) *BasketRepo { return &BasketRepo{db: db} }

// GetOrCreate returns the user's basket id, creating the basket on first
// use. Two concurrent first calls both end up with the same id: the loser
// of the insert race hits the unique key and re-reads.
func (r *BasketRepo) GetOrCreate(ctx context.Context, userID uint64) (uint64, error) {
	id, err := r.findByUser(ctx, userID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO baskets (user_id) VALUES (?)", userID)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return r.findByUser(ctx, userID)
		}
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

func (r *BasketRepo) findByUser(ctx context.Context, userID uint64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM baskets WHERE user_id = ? LIMIT 1", userID).Scan(&id)
	return id, err
}

// AddItem merges quantity into the basket's line for productID, inserting
// the line when it does not exist yet.
func (r *BasketRepo) AddItem(ctx context.Context, basketID, productID uint64, quantity int) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO basket_items (basket_id, product_id, quantity) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)",
		basketID, productID, quantity)
	if isMySQLError(err, mysqlOutOfRange) {
		return ErrOutOfRange
	}
	return err
}

// ItemsTx returns the raw rows of a basket inside an open transaction.
func (r *BasketRepo) ItemsTx(ctx context.Context, tx *sql.Tx, basketID uint64) ([]model.BasketItem, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, basket_id, product_id, quantity FROM basket_items WHERE basket_id = ? ORDER BY id", basketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.BasketItem{}
	for rows.Next() {
		var it model.BasketItem
		if err := rows.Scan(&it.ID, &it.BasketID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Lines returns the basket joined with the current product name and price.
// Items whose product has been deleted are not listed.
func (r *BasketRepo) Lines(ctx context.Context, basketID uint64) ([]model.BasketLine, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT p.id, p.name, p.price, bi.quantity FROM basket_items bi "+
			"JOIN products p ON p.id = bi.product_id WHERE bi.basket_id = ? ORDER BY bi.id", basketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []model.BasketLine{}
	for rows.Next() {
		var l model.BasketLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Clear removes every item of the basket.
func (r *BasketRepo) Clear(ctx context.Context, basketID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM basket_items WHERE basket_id = ?", basketID)
	return err
}

// ClearTx is Clear inside an open transaction.
func (r *BasketRepo) ClearTx(ctx context.Context, tx *sql.Tx, basketID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM basket_items WHERE basket_id = ?", basketID)
	return err
}
