package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/middleware"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/queue"
	"github.com/iliyamo/cinereviews/internal/repository"
	"github.com/iliyamo/cinereviews/internal/service"
)

// ReviewHandler serves reviews.  Writes are restricted to the author: the
// caller's profile is resolved from the email claim of the access token.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Movies  *repository.MovieRepo
	Users   *repository.UserRepo
	Events  service.EventPublisher
}

func NewReviewHandler(reviews *repository.ReviewRepo, movies *repository.MovieRepo, users *repository.UserRepo, events service.EventPublisher) *ReviewHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &ReviewHandler{Reviews: reviews, Movies: movies, Users: users, Events: events}
}

type createReviewReq struct {
	MovieID string  `json:"movie_id" validate:"required"`
	UserID  *string `json:"user_id"`
	Rating  int     `json:"rating" validate:"min=1,max=5"`
	Comment string  `json:"comment" validate:"required"`
}

type updateReviewReq struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// ListByMovie returns a movie's reviews, newest first, with authors joined.
func (h *ReviewHandler) ListByMovie(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	movieID := c.Param("id")
	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		return movieError(c, err)
	}
	items, err := h.Reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Latest returns the newest review across the catalog, or {"item": null}.
func (h *ReviewHandler) Latest(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	rv, err := h.Reviews.Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"item": nil})
		}
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"item": rv})
}

// callerProfile resolves the profile of the signed-in account.  A nil
// profile with a nil error means the account has none.
func (h *ReviewHandler) callerProfile(c echo.Context) (*model.Profile, error) {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Users.GetByEmail(ctx, middleware.Email(c))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	return p, err
}

// Create inserts a review.  user_id, when given, must be the caller's own
// profile; when omitted the caller's profile (if any) is used.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Comment) == "" {
		return errJSON(c, http.StatusBadRequest, "comment is required")
	}

	caller, err := h.callerProfile(c)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "database error")
	}
	userID := req.UserID
	switch {
	case userID != nil && (caller == nil || *userID != caller.ID):
		return errJSON(c, http.StatusForbidden, "cannot write a review as another user")
	case userID == nil && caller != nil:
		userID = &caller.ID
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		return movieError(c, err)
	}
	rv, err := h.Reviews.Create(ctx, model.ReviewInput{
		MovieID: req.MovieID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "create review failed")
	}

	ev := queue.NewReviewEvent(queue.ReviewCreated, rv.ID, rv.MovieID, rv.UserID, rv.Rating)
	ev.MovieTitle = movie.Title
	service.Publish(h.Events, ev)
	return c.JSON(http.StatusCreated, echo.Map{"item": rv})
}

// authorize loads review id and checks the caller authored it.  On failure
// the response has already been written and the returned review is nil.
func (h *ReviewHandler) authorize(c echo.Context, id string) (*model.Review, error) {
	caller, err := h.callerProfile(c)
	if err != nil {
		return nil, errJSON(c, http.StatusInternalServerError, "database error")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, reviewError(c, err)
	}
	if caller == nil || rv.UserID == nil || *rv.UserID != caller.ID {
		return nil, reviewError(c, repository.ErrForbidden)
	}
	return rv, nil
}

// Update changes rating and comment of the caller's own review.
func (h *ReviewHandler) Update(c echo.Context) error {
	var req updateReviewReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Comment) == "" {
		return errJSON(c, http.StatusBadRequest, "comment is required")
	}
	id := c.Param("id")
	if rv, err := h.authorize(c, id); rv == nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rv, err := h.Reviews.Update(ctx, id, model.ReviewUpdate{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return reviewError(c, err)
	}
	service.Publish(h.Events, queue.NewReviewEvent(queue.ReviewUpdated, rv.ID, rv.MovieID, rv.UserID, rv.Rating))
	return c.JSON(http.StatusOK, echo.Map{"item": rv})
}

// Delete removes the caller's own review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	rv, err := h.authorize(c, id)
	if rv == nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Reviews.Delete(ctx, id); err != nil {
		return reviewError(c, err)
	}
	service.Publish(h.Events, queue.NewReviewEvent(queue.ReviewDeleted, rv.ID, rv.MovieID, rv.UserID, 0))
	return c.NoContent(http.StatusNoContent)
}

func reviewError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrReviewNotFound):
		return errJSON(c, http.StatusNotFound, "review not found")
	case errors.Is(err, repository.ErrForbidden):
		return errJSON(c, http.StatusForbidden, "you can only modify your own reviews")
	}
	return errJSON(c, http.StatusInternalServerError, "database error")
}
