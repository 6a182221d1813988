package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backoffice/internal/service"
)

// UserHandler is the admin user directory.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type createAdminReq struct {
	Username string  `json:"username" validate:"required,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
}

type updateUserReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin Client"`
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, callerFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, callerFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// CreateAdmin registers another Admin account.
func (h *UserHandler) CreateAdmin(c echo.Context) error {
	var req createAdminReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.CreateAdmin(ctx, callerFrom(c), service.NewUserInput{
		Username: req.Username, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, callerFrom(c), id, service.UpdateUserInput{
		Username: req.Username, Email: req.Email, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, callerFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
