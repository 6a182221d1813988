package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backoffice/internal/service"
)

// ProductHandler serves the public catalog reads and the admin writes.
type ProductHandler struct {
	Products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{Products: products}
}

// productReq accepts the price as a JSON number or string; either way it
// is parsed exactly.
type productReq struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
}

func (r productReq) input() service.ProductInput {
	return service.ProductInput{Name: r.Name, Description: r.Description, Price: r.Price, IsActive: r.IsActive}
}

// List returns active products, newest first.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	products, err := h.Products.ListActive(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Get returns one product with its images.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Products.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Products.Create(ctx, callerFrom(c), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req productReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Products.Update(ctx, callerFrom(c), id, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, callerFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
