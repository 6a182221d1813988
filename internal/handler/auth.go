package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backoffice/internal/config"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/service"
	"github.com/iliyamo/shop-backoffice/internal/utils"
)

// AuthHandler serves registration, login and the refresh token lifecycle.
type AuthHandler struct {
	Users          *service.UserService
	Tokens         *repository.TokenRepo
	Settings       utils.TokenSettings
	AccessTTLMin   int
	RefreshTTLDays int
}

func NewAuthHandler(cfg config.Config, users *service.UserService, tokens *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{
		Users:  users,
		Tokens: tokens,
		Settings: utils.TokenSettings{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}
}

// ----- DTOs -----

type registerReq struct {
	Username string  `json:"username" validate:"required,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
}
type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Settings, u.ID, u.Role, h.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Username: u.Username, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register creates a Client account and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Register(ctx, service.NewUserInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return writeError(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestCtx(c)
	defer cancel()

	tok, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// Another request may have rotated the same token since validation.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return revokeFailed(c, err, "invalid refresh")
	}
	u, err := h.Users.Get(ctx, service.Caller{UserID: tok.UserID}, tok.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body. Without one, a valid
// Bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return revokeFailed(c, err, "invalid refresh token")
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Settings, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	uid, err := claims.UserID()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// revokeFailed answers 401 when the token was revoked by someone else in
// the meantime and falls back to writeError otherwise.
func revokeFailed(c echo.Context, err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
	}
	return writeError(c, err)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	caller := callerFrom(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, caller, caller.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
