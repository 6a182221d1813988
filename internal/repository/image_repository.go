package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// ImageRepo manages product_images rows. The single-main invariant is kept
// by callers running UnsetMainTx and SetMainTx (or CreateTx) in one
// transaction.
type ImageRepo struct {
	db *sql.DB
}

func NewImageRepo(db *sql.DB) *ImageRepo { return &ImageRepo{db: db} }

// DB exposes the handle for transactions.
func (r *ImageRepo) DB() *sql.DB { return r.db }

const imageColumns = "id, product_id, file_name, url, is_main, sort_order, created_at"

func scanImage(row interface{ Scan(...any) error }) (model.ProductImage, error) {
	var img model.ProductImage
	err := row.Scan(&img.ID, &img.ProductID, &img.FileName, &img.URL, &img.IsMain, &img.SortOrder, &img.CreatedAt)
	return img, err
}

func (r *ImageRepo) list(ctx context.Context, query string, args ...any) ([]model.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	images := []model.ProductImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ListByProduct returns a product's images by sort order, oldest first
// within the same sort order.
func (r *ImageRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.ProductImage, error) {
	return r.list(ctx,
		"SELECT "+imageColumns+" FROM product_images WHERE product_id = ? ORDER BY sort_order ASC, created_at ASC, id ASC",
		productID)
}

// GetByID returns one image or ErrImageNotFound.
func (r *ImageRepo) GetByID(ctx context.Context, id uint64) (*model.ProductImage, error) {
	return r.getOne(ctx, r.db, "SELECT "+imageColumns+" FROM product_images WHERE id = ?", id)
}

// GetByIDTx is GetByID inside an open transaction.
func (r *ImageRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ProductImage, error) {
	return r.getOne(ctx, tx, "SELECT "+imageColumns+" FROM product_images WHERE id = ?", id)
}

// GetMain returns the product's main image. Should a race ever leave two
// rows flagged, the most recently created one wins.
func (r *ImageRepo) GetMain(ctx context.Context, productID uint64) (*model.ProductImage, error) {
	return r.getOne(ctx, r.db,
		"SELECT "+imageColumns+" FROM product_images WHERE product_id = ? AND is_main = 1 ORDER BY created_at DESC, id DESC LIMIT 1",
		productID)
}

func (r *ImageRepo) getOne(ctx context.Context, q querier, query string, args ...any) (*model.ProductImage, error) {
	img, err := scanImage(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// CreateTx inserts img and fills its ID.
func (r *ImageRepo) CreateTx(ctx context.Context, tx *sql.Tx, img *model.ProductImage) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO product_images (product_id, file_name, url, is_main, sort_order, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		img.ProductID, img.FileName, img.URL, img.IsMain, img.SortOrder, img.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	img.ID = uint64(id)
	return nil
}

// UnsetMainTx clears the main flag on every image of the product.
func (r *ImageRepo) UnsetMainTx(ctx context.Context, tx *sql.Tx, productID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE product_images SET is_main = 0 WHERE product_id = ? AND is_main = 1", productID)
	return err
}

// SetMainTx flags exactly one image as main.
func (r *ImageRepo) SetMainTx(ctx context.Context, tx *sql.Tx, imageID uint64) error {
	res, err := tx.ExecContext(ctx, "UPDATE product_images SET is_main = 1 WHERE id = ?", imageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

// UpdateTx writes the main flag and sort order of img.
func (r *ImageRepo) UpdateTx(ctx context.Context, tx *sql.Tx, img model.ProductImage) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE product_images SET is_main = ?, sort_order = ? WHERE id = ?",
		img.IsMain, img.SortOrder, img.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

// Delete removes one image row.
func (r *ImageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM product_images WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

// DeleteByProduct removes every image row of a product and returns how
// many were removed.
func (r *ImageRepo) DeleteByProduct(ctx context.Context, productID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM product_images WHERE product_id = ?", productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
