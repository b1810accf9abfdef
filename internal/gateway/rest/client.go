// Package rest implements gateway.Gateway over the cinereviews HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
)

// Client talks to the backend and holds the current session in memory.
// It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	now  func() time.Time
	log  *slog.Logger

	mu        sync.Mutex
	session   *model.Session
	listeners map[int]gateway.AuthListener
	nextID    int
}

var _ gateway.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithClock overrides time.Now, used for expiry checks.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
		log:       slog.Default(),
		listeners: map[int]gateway.AuthListener{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

type item[T any] struct {
	Item *T `json:"item"`
}

type items[T any] struct {
	Items []T `json:"items"`
}

// do sends one request.  body and out may be nil; token adds a bearer.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("rest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		return &gateway.Error{Status: resp.StatusCode, Message: eb.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest: decode %s %s: %w", method, path, err)
	}
	return nil
}

// bearer returns a valid access token, refreshing an expired one.  Requests
// made while signed out carry no token and are rejected by the server.
func (c *Client) bearer(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, token, body, out)
}

// ----- movies -----

func (c *Client) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var out items[model.Movie]
	if err := c.do(ctx, http.MethodGet, "/v1/movies", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	var out item[model.Movie]
	if err := c.do(ctx, http.MethodGet, "/v1/movies/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) InsertMovie(ctx context.Context, in model.MovieInput) (*model.Movie, error) {
	var out item[model.Movie]
	if err := c.authed(ctx, http.MethodPost, "/v1/movies", in, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) UpdateMovie(ctx context.Context, id string, in model.MovieInput) (*model.Movie, error) {
	var out item[model.Movie]
	if err := c.authed(ctx, http.MethodPut, "/v1/movies/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/v1/movies/"+url.PathEscape(id), nil, nil)
}

// ----- reviews -----

func (c *Client) ListReviews(ctx context.Context, movieID string) ([]model.Review, error) {
	var out items[model.Review]
	if err := c.do(ctx, http.MethodGet, "/v1/movies/"+url.PathEscape(movieID)+"/reviews", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) LatestReview(ctx context.Context) (*model.Review, error) {
	var out item[model.Review]
	if err := c.do(ctx, http.MethodGet, "/v1/reviews/latest", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) InsertReview(ctx context.Context, in model.ReviewInput) (*model.Review, error) {
	var out item[model.Review]
	if err := c.authed(ctx, http.MethodPost, "/v1/reviews", in, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) UpdateReview(ctx context.Context, id string, upd model.ReviewUpdate) (*model.Review, error) {
	var out item[model.Review]
	if err := c.authed(ctx, http.MethodPut, "/v1/reviews/"+url.PathEscape(id), upd, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/v1/reviews/"+url.PathEscape(id), nil, nil)
}

// ----- users -----

func (c *Client) findUser(ctx context.Context, key, value string) (*model.Profile, error) {
	var out item[model.Profile]
	q := url.Values{key: {value}}
	if err := c.do(ctx, http.MethodGet, "/v1/users?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) FindUserByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return c.findUser(ctx, "username", username)
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return c.findUser(ctx, "email", email)
}

func (c *Client) InsertUser(ctx context.Context, in model.ProfileInput) (*model.Profile, error) {
	var out item[model.Profile]
	if err := c.authed(ctx, http.MethodPost, "/v1/users", in, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

// ErrNoResult is returned when the server answers 2xx without the expected
// payload.
var ErrNoResult = errors.New("rest: empty response")
