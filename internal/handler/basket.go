package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backoffice/internal/service"
)

// BasketHandler serves the caller's own basket.
type BasketHandler struct {
	Baskets *service.BasketService
}

func NewBasketHandler(baskets *service.BasketService) *BasketHandler {
	return &BasketHandler{Baskets: baskets}
}

type addItemReq struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=10000"`
}

func (h *BasketHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.Baskets.Get(ctx, callerFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// AddItem merges the quantity into the basket and returns the basket.
func (h *BasketHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.Baskets.AddItem(ctx, callerFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BasketHandler) Clear(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Baskets.Clear(ctx, callerFrom(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
