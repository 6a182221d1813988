package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// ProductRepo provides CRUD operations for the products table. Prices are
// scanned straight into decimal.Decimal, which implements sql.Scanner.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id, name, description, price, created_by_user_id, is_active, created_at"

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var (
		p    model.Product
		desc sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &desc, &p.Price, &p.CreatedByUserID, &p.IsActive, &p.CreatedAt)
	p.Description = stringPtr(desc)
	return p, err
}

// Create inserts p and fills its ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (name, description, price, created_by_user_id, is_active, created_at) VALUES (?,?,?,?,?,?)",
		p.Name, nullString(p.Description), p.Price, p.CreatedByUserID, p.IsActive, p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns the product or ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx is GetByID inside an open transaction; checkout prices its
// lines through it so the read belongs to the order's unit of work.
func (r *ProductRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Product, error) {
	return r.getByID(ctx, tx, id)
}

func (r *ProductRepo) getByID(ctx context.Context, q querier, id uint64) (*model.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Exists reports whether a product row with id is present.
func (r *ProductRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListActive returns the active products, newest first.
func (r *ProductRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = 1 ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update writes name, description, price and the active flag.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = ?, description = ?, price = ?, is_active = ? WHERE id = ?",
		p.Name, nullString(p.Description), p.Price, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete hard-deletes the product. Its image rows go with it through the
// foreign key cascade; order items keep their snapshot.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
