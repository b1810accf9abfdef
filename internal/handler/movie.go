package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/repository"
)

// MovieHandler serves the catalog.  Reads are public; writes require a
// signed-in account.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{Movies: movies}
}

type movieReq struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Genre       *string `json:"genre" validate:"omitempty,max=100"`
	ReleaseYear *int    `json:"release_year" validate:"omitempty,min=1800,max=2100"`
	PosterURL   *string `json:"poster_url" validate:"omitempty,url"`
}

func (r *movieReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Genre = trimPtr(r.Genre)
	r.PosterURL = trimPtr(r.PosterURL)
}

func (r movieReq) input() model.MovieInput {
	return model.MovieInput{Title: r.Title, Genre: r.Genre, ReleaseYear: r.ReleaseYear, PosterURL: r.PosterURL}
}

func (h *MovieHandler) bindMovie(c echo.Context) (*movieReq, error) {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return nil, errJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.normalize()
	if err := validate.Struct(&req); err != nil {
		return nil, errJSON(c, http.StatusBadRequest, validationMessage(err))
	}
	return &req, nil
}

// List returns every movie ordered by title.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	movies, err := h.Movies.ListAll(ctx)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// Get returns one movie.
func (h *MovieHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, c.Param("id"))
	if err != nil {
		return movieError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": m})
}

// Create inserts a movie.
func (h *MovieHandler) Create(c echo.Context) error {
	req, err := h.bindMovie(c)
	if req == nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Movies.Create(ctx, req.input())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "create movie failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": m})
}

// Update replaces a movie's writable fields.
func (h *MovieHandler) Update(c echo.Context) error {
	req, err := h.bindMovie(c)
	if req == nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Movies.Update(ctx, c.Param("id"), req.input())
	if err != nil {
		return movieError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": m})
}

// Delete removes a movie and, through the schema, its reviews.
func (h *MovieHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Movies.Delete(ctx, c.Param("id")); err != nil {
		return movieError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func movieError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrMovieNotFound) {
		return errJSON(c, http.StatusNotFound, "movie not found")
	}
	return errJSON(c, http.StatusInternalServerError, "database error")
}
