package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"})

	err := repo.Create(context.Background(), &model.User{Username: "alice", PasswordHash: "h", Role: model.RoleClient})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserCreate_SetsID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("bob", nil, "hash", model.RoleClient, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{Username: "bob", PasswordHash: "hash", Role: model.RoleClient}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByUsername(context.Background(), " ghost ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).WithArgs(3).
		WillReturnError(&mysql.MySQLError{Number: 1451})

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrUserNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSetMain_UnsetThenSetInOneTx(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewImageRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_images SET is_main = 0 WHERE product_id = ?")).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_images SET is_main = 1 WHERE id = ?")).
		WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.UnsetMainTx(ctx, tx, 5))
	require.NoError(t, repo.SetMainTx(ctx, tx, 42))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSetMain_MissingImage(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewImageRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET is_main = 1")).WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SetMainTx(ctx, tx, 99), ErrImageNotFound)
	require.NoError(t, tx.Rollback())
}

func TestImageGetMain_MostRecentFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewImageRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ? AND is_main = 1 ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "file_name", "url", "is_main", "sort_order", "created_at"}).
			AddRow(12, 5, "b.png", "http://x/uploads/products/5/b.png", true, 0, now))

	img, err := repo.GetMain(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), img.ID)
	assert.True(t, img.IsMain)
}

func TestImageDeleteByProduct_ReturnsCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewImageRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_images WHERE product_id = ?")).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBasketGetOrCreate_Existing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBasketRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM baskets WHERE user_id = ?")).
		WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	id, err := repo.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBasketGetOrCreate_LosesInsertRace(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBasketRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM baskets")).
		WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO baskets (user_id) VALUES (?)")).
		WithArgs(1).WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM baskets")).
		WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := repo.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBasketAddItem_Upserts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBasketRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)")).
		WithArgs(10, 3, 2).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.AddItem(context.Background(), 10, 3, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBasketLines_ScansReadModel(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBasketRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN products p ON p.id = bi.product_id")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "quantity"}).
			AddRow(1, "Mug", "10.00", 2).
			AddRow(2, "Pen", "5.00", 1))

	lines, err := repo.Lines(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Mug", lines[0].Name)
	assert.True(t, lines[0].Price.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestOrderCreateItemsBulkTx_BuildsPlaceholders(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()

	items := []model.OrderItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(20)},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(5), TotalPrice: decimal.NewFromInt(5)},
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs(77, 1, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), 77, 2, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateItemsBulkTx(ctx, tx, 77, items))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderListByUser_AttachesItems(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepo(db)

	now := time.Now().UTC()
	orderCols := []string{"id", "user_id", "region", "locality", "total_products_price", "shipping_price", "total_price", "status", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = ? ORDER BY created_at DESC")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(2, 4, "Alger", "Bab Ezzouar", "5.00", "1.00", "6.00", "Pending", now).
			AddRow(1, 4, "Oran", "Es Senia", "20.00", "2.00", "22.00", "Pending", now.Add(-time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id IN (?, ?)")).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "total_price"}).
			AddRow(1, 1, 9, 2, "10.00", "20.00").
			AddRow(2, 2, 8, 1, "5.00", "5.00"))

	orders, err := repo.ListByUser(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(2), orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, uint64(8), orders[0].Items[0].ProductID)
	require.Len(t, orders[1].Items, 1)
	assert.True(t, orders[1].Items[0].TotalPrice.Equal(decimal.NewFromInt(20)))
}

func TestOrderGetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 5)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestRevokeByHash_SingleUse(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTokenRepo(db)
	q := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")

	mock.ExpectExec(q).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
	assert.ErrorIs(t, repo.RevokeByHash(context.Background(), "h"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefresh(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTokenRepo(db)
	cols := []string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at"}
	q := regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")
	now := time.Now().UTC()

	mock.ExpectQuery(q).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 7, "live", now.Add(time.Hour), nil, now))
	mock.ExpectQuery(q).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, 7, "expired", now.Add(-time.Minute), nil, now))
	mock.ExpectQuery(q).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 7, "revoked", now.Add(time.Hour), now, now))

	tok, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), tok.UserID)
	assert.Nil(t, tok.RevokedAt)

	_, err = repo.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
