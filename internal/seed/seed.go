// Package seed loads a starter movie catalog from a YAML file into an empty
// movies table.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/cinereviews/internal/model"
)

// File is the on-disk layout of a seed file:
//
//	movies:
//	  - title: Alien
//	    genre: Sci-Fi
//	    release_year: 1979
//	    poster_url: https://example.com/alien.jpg
type File struct {
	Movies []Movie `yaml:"movies"`
}

// Movie is one catalog entry in a seed file.
type Movie struct {
	Title       string `yaml:"title"`
	Genre       string `yaml:"genre"`
	ReleaseYear int    `yaml:"release_year"`
	PosterURL   string `yaml:"poster_url"`
}

// Store is the subset of the movie repository the loader needs.
type Store interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, in model.MovieInput) (*model.Movie, error)
}

// Parse decodes a seed document and validates every entry.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("seed: decode: %w", err)
	}
	for i, m := range f.Movies {
		if strings.TrimSpace(m.Title) == "" {
			return File{}, fmt.Errorf("seed: movie %d: title is required", i+1)
		}
		if m.ReleaseYear != 0 && (m.ReleaseYear < model.MinReleaseYear || m.ReleaseYear > model.MaxReleaseYear) {
			return File{}, fmt.Errorf("seed: movie %q: release_year %d out of range", m.Title, m.ReleaseYear)
		}
	}
	return f, nil
}

// Input converts a seed entry to the repository payload; zero values become
// unset optional columns.
func (m Movie) Input() model.MovieInput {
	in := model.MovieInput{Title: strings.TrimSpace(m.Title)}
	if m.Genre != "" {
		g := m.Genre
		in.Genre = &g
	}
	if m.ReleaseYear != 0 {
		y := m.ReleaseYear
		in.ReleaseYear = &y
	}
	if m.PosterURL != "" {
		p := m.PosterURL
		in.PosterURL = &p
	}
	return in
}

// LoadFile seeds store from path when the catalog is empty.  It returns the
// number of movies inserted; a non-empty catalog is left alone.
func LoadFile(ctx context.Context, store Store, path string) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Debug("seed skipped, catalog not empty", "movies", n)
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return 0, err
	}
	for i, m := range f.Movies {
		if _, err := store.Create(ctx, m.Input()); err != nil {
			return i, fmt.Errorf("seed: insert %q: %w", m.Title, err)
		}
	}
	slog.Info("seeded catalog", "file", path, "movies", len(f.Movies))
	return len(f.Movies), nil
}
