package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backoffice/internal/middleware"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/service"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	return e
}

// asUser stands in for JWTAuth.
func asUser(id uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextUserID, id)
			c.Set(middleware.ContextRole, role)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
		{service.ErrEmptyBasket, http.StatusBadRequest},
		{fmt.Errorf("%w: product 9", service.ErrProductMissing), http.StatusBadRequest},
		{repository.ErrUsernameTaken, http.StatusConflict},
		{repository.ErrOrderNotFound, http.StatusNotFound},
		{repository.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, errors.New("dial tcp 10.0.0.5:3306")))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestCallerFrom(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, service.Caller{}, callerFrom(c))

	c.Set(middleware.ContextUserID, uint64(4))
	c.Set(middleware.ContextRole, model.RoleAdmin)
	assert.Equal(t, service.Caller{UserID: 4, Role: model.RoleAdmin}, callerFrom(c))
}

func TestParseID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("12")
	id, err := parseID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, err := parseID(c, "id")
		assert.Error(t, err, bad)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(fakePinger{}))
	e.GET("/down", Health(fakePinger{err: errors.New("no db")}))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/up", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
}

var orderCols = []string{"id", "user_id", "region", "locality", "total_products_price", "shipping_price", "total_price", "status", "created_at"}

func newOrderHandler(t *testing.T) (*OrderHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := service.NewOrderService(db, repository.NewBasketRepo(db), repository.NewProductRepo(db), repository.NewOrderRepo(db), nil)
	return NewOrderHandler(svc), mock
}

func TestGetOrder_ForbiddenIsNotNotFound(t *testing.T) {
	h, mock := newOrderHandler(t)
	e := newEcho()
	e.GET("/v1/orders/:id", h.Get, asUser(6, model.RoleClient))

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(42, 5, "R", "L", "1.00", "0.00", "1.00", "Pending", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "total_price"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(43).
		WillReturnRows(sqlmock.NewRows(orderCols))

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/orders/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/orders/43", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/orders/abc", "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_EmptyBasketIsClientError(t *testing.T) {
	h, mock := newOrderHandler(t)
	e := newEcho()
	e.POST("/v1/orders/checkout", h.Checkout, asUser(5, model.RoleClient))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM baskets WHERE user_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM basket_items WHERE basket_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "basket_id", "product_id", "quantity"}))
	mock.ExpectRollback()

	rec := do(e, http.MethodPost, "/v1/orders/checkout", `{"region":"North","locality":"Springfield","shipping_price":"3.50"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "basket is empty")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_RequiresAddress(t *testing.T) {
	h, mock := newOrderHandler(t)
	e := newEcho()
	e.POST("/v1/orders/checkout", h.Checkout, asUser(5, model.RoleClient))

	rec := do(e, http.MethodPost, "/v1/orders/checkout", `{"locality":"Springfield"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"region is required"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_ShippingPriceBounds(t *testing.T) {
	h, mock := newOrderHandler(t)
	e := newEcho()
	e.POST("/v1/orders/checkout", h.Checkout, asUser(5, model.RoleClient))

	rec := do(e, http.MethodPost, "/v1/orders/checkout", `{"region":"R","locality":"L","shipping_price":"1.005"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "shipping price has more than two decimal places")

	rec = do(e, http.MethodPost, "/v1/orders/checkout", `{"region":"R","locality":"L","shipping_price":"12345678901.00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "shipping price must not exceed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllOrders_ClientForbidden(t *testing.T) {
	h, _ := newOrderHandler(t)
	e := newEcho()
	e.GET("/v1/admin/orders", h.All, asUser(5, model.RoleClient))

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/admin/orders", "").Code)
}

func TestAddBasketItem_Validation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewBasketHandler(service.NewBasketService(repository.NewBasketRepo(db), repository.NewProductRepo(db)))
	e := newEcho()
	e.POST("/v1/basket/items", h.AddItem, asUser(5, model.RoleClient))

	rec := do(e, http.MethodPost, "/v1/basket/items", `{"product_id":10,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"quantity must be at least 1"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/v1/basket/items", `{"product_id":10,"quantity":10001}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"quantity must be at most 10000"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/v1/basket/items", `{"product_id":10,"quantity":99999999999999999999}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM products WHERE id = ?")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	rec = do(e, http.MethodPost, "/v1/basket/items", `{"product_id":99,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadImage_MissingFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	images := service.NewImageService(repository.NewImageRepo(db), repository.NewProductRepo(db), nil, "http://localhost", 0)
	h := NewImageHandler(images)
	e := newEcho()
	e.POST("/v1/admin/products/:id/images", h.Upload, asUser(1, model.RoleAdmin))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("is_main", "true"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/products/4/images", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"file is required"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreate_BadPrice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewProductHandler(service.NewProductService(repository.NewProductRepo(db), repository.NewImageRepo(db), nil))
	e := newEcho()
	e.POST("/v1/admin/products", h.Create, asUser(1, model.RoleAdmin))

	rec := do(e, http.MethodPost, "/v1/admin/products", `{"name":"Mug","price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "price must not be negative")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).WillReturnResult(sqlmock.NewResult(5, 1))
	rec = do(e, http.MethodPost, "/v1/admin/products", `{"name":"Mug","price":12.5}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
