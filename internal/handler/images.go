package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backoffice/internal/service"
)

// ImageHandler serves product image metadata and admin uploads.
type ImageHandler struct {
	Images *service.ImageService
}

func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{Images: images}
}

type updateImageReq struct {
	IsMain    *bool `json:"is_main"`
	SortOrder *int  `json:"sort_order" validate:"omitempty,min=0"`
}

// ListByProduct returns a product's images in display order.
func (h *ImageHandler) ListByProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	images, err := h.Images.List(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

// Main returns the product's main image.
func (h *ImageHandler) Main(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	img, err := h.Images.GetMain(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (h *ImageHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	img, err := h.Images.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

// Upload takes a multipart form: file (required), is_main and sort_order.
func (h *ImageHandler) Upload(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return badRequest(c, "file is required")
		}
		return badRequest(c, "invalid multipart form")
	}
	isMain := false
	if v := strings.TrimSpace(c.FormValue("is_main")); v != "" {
		if isMain, err = strconv.ParseBool(v); err != nil {
			return badRequest(c, "is_main must be a boolean")
		}
	}
	sortOrder := 0
	if v := strings.TrimSpace(c.FormValue("sort_order")); v != "" {
		if sortOrder, err = strconv.Atoi(v); err != nil || sortOrder < 0 {
			return badRequest(c, "sort_order must be a non-negative integer")
		}
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	// Uploads get the request context without the short timeout.
	img, err := h.Images.Upload(c.Request().Context(), callerFrom(c), service.UploadInput{
		ProductID: productID,
		FileName:  fh.Filename,
		Size:      fh.Size,
		Content:   f,
		IsMain:    isMain,
		SortOrder: sortOrder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *ImageHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req updateImageReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	img, err := h.Images.Update(ctx, callerFrom(c), id, service.UpdateImageInput{IsMain: req.IsMain, SortOrder: req.SortOrder})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

// SetMain flags the image as its product's only main image.
func (h *ImageHandler) SetMain(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	img, err := h.Images.SetMain(ctx, callerFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (h *ImageHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Images.Delete(ctx, callerFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll removes every image of the product.
func (h *ImageHandler) DeleteAll(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	n, err := h.Images.DeleteAllForProduct(ctx, callerFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
