package router // package router wires handlers and middleware onto the Echo instance

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/shop-backoffice/internal/handler"    // HTTP handlers
	"github.com/iliyamo/shop-backoffice/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/shop-backoffice/internal/middleware" // JWT, role, cache and rate limit middleware
	"github.com/iliyamo/shop-backoffice/internal/model"      // role names
	"github.com/iliyamo/shop-backoffice/internal/utils"      // token settings
)

// RegisterRoutes registers the unauthenticated operational endpoints and
// the static file route that serves locally stored uploads.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, uploadsDir string) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", metrics.Handler())
	if uploadsDir != "" {
		e.Static("/uploads", uploadsDir)
	}
}

// RegisterAuth registers /v1/auth (rate limited) and GET /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body or a Bearer token alone.
	g.POST("/logout", a.Logout)

	authed := e.Group("/v1", middleware.JWTAuth(a.Settings), middleware.RequireRole(model.RoleAdmin, model.RoleClient))
	authed.GET("/me", a.Me)
}

// RegisterCatalog registers the public, cached catalog reads.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, i *handler.ImageHandler, cache *middleware.ResponseCache) {
	g := e.Group("/v1", cache.Middleware())
	g.GET("/products", p.List)
	g.GET("/products/:id", p.Get)
	g.GET("/products/:id/images", i.ListByProduct)
	g.GET("/products/:id/images/main", i.Main)
	g.GET("/images/:id", i.Get)
}

// AdminHandlers groups everything mounted under /v1/admin.
type AdminHandlers struct {
	Users    *handler.UserHandler
	Products *handler.ProductHandler
	Images   *handler.ImageHandler
	Orders   *handler.OrderHandler
}

// RegisterAdmin registers the Admin-only endpoints. Successful writes purge
// the catalog cache.
func RegisterAdmin(e *echo.Echo, tokens utils.TokenSettings, h AdminHandlers, cache *middleware.ResponseCache) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(tokens),
		middleware.RequireRole(model.RoleAdmin),
		cache.PurgeOnWrite(),
	)

	// ---- Users ----
	g.GET("/users", h.Users.List)
	g.GET("/users/:id", h.Users.Get)
	g.POST("/users", h.Users.CreateAdmin)
	g.PUT("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Delete)

	// ---- Products ----
	g.POST("/products", h.Products.Create)
	g.PUT("/products/:id", h.Products.Update)
	g.DELETE("/products/:id", h.Products.Delete)

	// ---- Images ----
	g.POST("/products/:id/images", h.Images.Upload)
	g.DELETE("/products/:id/images", h.Images.DeleteAll)
	g.PUT("/images/:id", h.Images.Update)
	g.PATCH("/images/:id/set-main", h.Images.SetMain)
	g.DELETE("/images/:id", h.Images.Delete)

	// ---- Orders ----
	g.GET("/orders", h.Orders.All)
}

// RegisterShop registers the signed-in customer endpoints: basket and
// orders. Admins may use them too.
func RegisterShop(e *echo.Echo, tokens utils.TokenSettings, b *handler.BasketHandler, o *handler.OrderHandler) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(tokens),
		middleware.RequireRole(model.RoleAdmin, model.RoleClient),
	)

	g.GET("/basket", b.Get)
	g.POST("/basket/items", b.AddItem)
	g.DELETE("/basket", b.Clear)

	g.POST("/orders/checkout", o.Checkout)
	g.GET("/orders/mine", o.Mine)
	g.GET("/orders/:id", o.Get)
}
