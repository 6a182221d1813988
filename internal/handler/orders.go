package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backoffice/internal/service"
)

// OrderHandler serves checkout and order reads.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

type checkoutReq struct {
	Region        string          `json:"region" validate:"required,max=100"`
	Locality      string          `json:"locality" validate:"required,max=100"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
}

// Checkout places an order from the caller's basket.
func (h *OrderHandler) Checkout(c echo.Context) error {
	var req checkoutReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	o, err := h.Orders.Checkout(ctx, callerFrom(c), service.CheckoutInput{
		Region:        req.Region,
		Locality:      req.Locality,
		ShippingPrice: req.ShippingPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// Mine lists the caller's orders, newest first.
func (h *OrderHandler) Mine(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	orders, err := h.Orders.ListMine(ctx, callerFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one order to its owner or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	o, err := h.Orders.Get(ctx, callerFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// All lists every order (admin).
func (h *OrderHandler) All(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	orders, err := h.Orders.ListAll(ctx, callerFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}
