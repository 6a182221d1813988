package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backoffice/internal/config"
	"github.com/iliyamo/shop-backoffice/internal/handler"
	"github.com/iliyamo/shop-backoffice/internal/middleware"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/service"
	"github.com/iliyamo/shop-backoffice/internal/utils"
)

func buildServer(t *testing.T) (*echo.Echo, utils.TokenSettings) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	images := repository.NewImageRepo(db)
	baskets := repository.NewBasketRepo(db)

	userSvc := service.NewUserService(users, tokens, 4)
	productH := handler.NewProductHandler(service.NewProductService(products, images, nil))
	imageH := handler.NewImageHandler(service.NewImageService(images, products, nil, "http://localhost", 0))
	orderH := handler.NewOrderHandler(service.NewOrderService(db, baskets, products, repository.NewOrderRepo(db), nil))
	authH := handler.NewAuthHandler(config.Config{JWTSecret: "s", JWTIssuer: "i", JWTAudience: "a", AccessTTLMin: 5, RefreshTTLDays: 1}, userSvc, tokens)

	cache := middleware.NewResponseCache(config.CacheConfig{}, nil)
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	RegisterRoutes(e, nil, "")
	RegisterAuth(e, authH, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	RegisterCatalog(e, productH, imageH, cache)
	RegisterAdmin(e, authH.Settings, AdminHandlers{
		Users: handler.NewUserHandler(userSvc), Products: productH, Images: imageH, Orders: orderH,
	}, cache)
	RegisterShop(e, authH.Settings, handler.NewBasketHandler(service.NewBasketService(baskets, products)), orderH)
	return e, authH.Settings
}

func TestRoutesRegistered(t *testing.T) {
	e, _ := buildServer(t)

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/products",
		"GET /v1/products/:id",
		"GET /v1/products/:id/images",
		"GET /v1/products/:id/images/main",
		"GET /v1/images/:id",
		"GET /v1/admin/users",
		"POST /v1/admin/users",
		"PUT /v1/admin/users/:id",
		"DELETE /v1/admin/users/:id",
		"POST /v1/admin/products",
		"PUT /v1/admin/products/:id",
		"DELETE /v1/admin/products/:id",
		"POST /v1/admin/products/:id/images",
		"DELETE /v1/admin/products/:id/images",
		"PUT /v1/admin/images/:id",
		"PATCH /v1/admin/images/:id/set-main",
		"DELETE /v1/admin/images/:id",
		"GET /v1/admin/orders",
		"GET /v1/basket",
		"POST /v1/basket/items",
		"DELETE /v1/basket",
		"POST /v1/orders/checkout",
		"GET /v1/orders/mine",
		"GET /v1/orders/:id",
	} {
		assert.True(t, got[want], want)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e, settings := buildServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/orders", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewAccessToken(settings, 5, model.RoleClient, 5)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBasketRequiresToken(t *testing.T) {
	e, _ := buildServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/basket", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
