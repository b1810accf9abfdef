package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/repository"
)

// UserHandler exposes profile lookups and explicit profile creation.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: users}
}

type profileReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
}

// Find looks a profile up by ?username= or ?email=.  A miss is not an
// error: the response is {"item": null}.
func (h *UserHandler) Find(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	email := strings.TrimSpace(c.QueryParam("email"))
	if username == "" && email == "" {
		return errJSON(c, http.StatusBadRequest, "username or email required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	var (
		p   *model.Profile
		err error
	)
	if username != "" {
		p, err = h.Users.GetByUsername(ctx, username)
	} else {
		p, err = h.Users.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"item": nil})
		}
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"item": p})
}

// Create inserts a profile (protected).
func (h *UserHandler) Create(c echo.Context) error {
	var req profileReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Users.Create(ctx, model.ProfileInput{Username: req.Username, Email: req.Email})
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return errJSON(c, http.StatusConflict, "username already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return errJSON(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrConflict):
		return errJSON(c, http.StatusConflict, "username or email already exists")
	case err != nil:
		return errJSON(c, http.StatusInternalServerError, "create user failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": p})
}
