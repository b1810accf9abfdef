package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iliyamo/cinereviews/internal/model"
)

const dateLayout = "Jan 2, 2006"

// stars renders a rating as filled and empty stars, e.g. ★★★☆☆.
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > model.MaxRating {
		rating = model.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", model.MaxRating-rating)
}

// movieLine is the one-line card of a movie in the catalog listing.
func movieLine(i int, m model.Movie, selected bool) string {
	mark := " "
	if selected {
		mark = "*"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %2d. %s", mark, i+1, m.Title)
	var details []string
	if m.ReleaseYear != nil {
		details = append(details, strconv.Itoa(*m.ReleaseYear))
	}
	if m.Genre != nil && *m.Genre != "" {
		details = append(details, *m.Genre)
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if m.PosterURL != nil && *m.PosterURL != "" {
		fmt.Fprintf(&b, " [poster: %s]", *m.PosterURL)
	}
	return b.String()
}

func writeMovies(w io.Writer, movies []model.Movie, selectedID string) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "No movies yet. Use add-movie to create one.")
		return
	}
	for i, m := range movies {
		fmt.Fprintln(w, movieLine(i, m, m.ID == selectedID))
	}
}

// reviewBlock renders one review.  own marks reviews the user may change.
func reviewBlock(i int, r model.Review, own bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s  %s  %s", i+1, stars(r.Rating), r.AuthorName(), r.CreatedAt.Format(dateLayout))
	if own {
		b.WriteString("  (yours)")
	}
	fmt.Fprintf(&b, "\n    %s", r.Comment)
	return b.String()
}

func writeReviews(w io.Writer, rs []model.Review, own func(model.Review) bool) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No reviews yet. Be the first to write one.")
		return
	}
	for i, r := range rs {
		fmt.Fprintln(w, reviewBlock(i, r, own(r)))
	}
}

func writeLatest(w io.Writer, r *model.Review) {
	if r == nil {
		fmt.Fprintln(w, "No reviews yet.")
		return
	}
	fmt.Fprintf(w, "Latest: %s on %s  %s  %s\n    %s\n",
		r.AuthorName(), r.MovieTitle, stars(r.Rating), r.CreatedAt.Format(dateLayout), r.Comment)
}
