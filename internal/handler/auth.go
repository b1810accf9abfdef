package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/config"
	"github.com/iliyamo/cinereviews/internal/middleware"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/repository"
	"github.com/iliyamo/cinereviews/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Tokens: t}
}

// ----- DTOs -----

type signUpReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,max=64"`
}
type tokenReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func identityOf(a *model.Account) model.Identity {
	return model.Identity{ID: a.ID, Email: a.Email, Username: a.Username}
}

// issueSession creates an access/refresh pair for a and stores the refresh
// hash.  On failure the response has already been written.
func (h *AuthHandler) issueSession(c echo.Context, a *model.Account) (*model.Session, error) {
	ctx, cancel := dbCtx(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, a.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, errJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, errJSON(c, http.StatusInternalServerError, "issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, a.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, errJSON(c, http.StatusInternalServerError, "save refresh failed")
	}
	return &model.Session{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw, // raw back to client
		ExpiresAt:    access.Exp,
		User:         identityOf(a),
	}, nil
}

// SignUp creates an account and its profile.  It does not sign the caller
// in; the client signs in separately.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	acc, err := h.Accounts.Register(ctx, req.Email, req.Username, req.Password, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return errJSON(c, http.StatusConflict, "User already registered")
	case errors.Is(err, repository.ErrUsernameExists):
		return errJSON(c, http.StatusConflict, "Username already taken")
	case err != nil:
		return errJSON(c, http.StatusInternalServerError, "create user failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": identityOf(acc)})
}

// Token verifies email/password and returns a new session.
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errJSON(c, http.StatusUnauthorized, "Invalid login credentials")
		}
		return errJSON(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return errJSON(c, http.StatusUnauthorized, "Invalid login credentials")
	}

	sess, err := h.issueSession(c, acc)
	if sess == nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errJSON(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return errJSON(c, http.StatusInternalServerError, "load account failed")
	}

	sess, err := h.issueSession(c, acc)
	if sess == nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer's account when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var accountID string
	if raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer "); ok {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw); err == nil {
			accountID = claims.Subject
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return errJSON(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return errJSON(c, http.StatusInternalServerError, "logout failed")
		}
	case accountID != "":
		if err := h.Tokens.RevokeAllForAccount(ctx, accountID); err != nil {
			return errJSON(c, http.StatusInternalServerError, "logout failed")
		}
	default:
		return errJSON(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
	}
	return c.NoContent(http.StatusNoContent)
}

// User returns the identity behind the bearer token (protected).
func (h *AuthHandler) User(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, middleware.AccountID(c))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errJSON(c, http.StatusUnauthorized, "account no longer exists")
		}
		return errJSON(c, http.StatusInternalServerError, "load account failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": identityOf(acc), "checked_at": time.Now().UTC()})
}
