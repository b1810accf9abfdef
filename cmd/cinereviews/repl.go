package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/cinereviews/internal/app"
	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/form"
	"github.com/iliyamo/cinereviews/internal/model"
)

// console reads lines for both commands and prompts.  It is also the
// Confirmer used for deletions.
type console struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out}
}

// ask prints prompt and returns the next line.  ok is false at end of
// input.
func (c *console) ask(prompt string) (line string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *console) Confirm(_ context.Context, prompt string) bool {
	ans, ok := c.ask(prompt + " [y/N] ")
	if !ok {
		return false
	}
	ans = strings.ToLower(ans)
	return ans == "y" || ans == "yes"
}

type repl struct {
	app *app.App
	con *console
	out io.Writer
}

const helpText = `commands:
  movies                     list the catalog (* marks the selection)
  select <n>                 select movie n
  reviews                    list reviews of the selected movie
  latest                     show the newest review
  review <1-5> <comment>     write a review (or save the one being edited)
  edit <n>                   edit your review n
  cancel                     stop editing
  delete <n>                 delete your review n
  add-movie                  add a movie
  edit-movie                 edit the selected movie
  delete-movie               delete the selected movie and its reviews
  signin | signup | signout  authentication
  whoami                     show the signed-in user
  help | quit`

// run reads commands until quit or end of input.
func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, `CineReviews. Type "help" for commands.`)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := r.con.ask("> ")
		if !ok {
			return nil
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := r.exec(ctx, cmd, rest); err != nil && !errors.Is(err, apperror.ErrCancelled) {
			// the view-models already notified; only command errors are printed
			var ce cmdError
			if errors.As(err, &ce) {
				fmt.Fprintln(r.out, ce)
			}
		}
	}
}

// cmdError is a usage problem with the typed command itself.
type cmdError string

func (e cmdError) Error() string { return string(e) }

func (r *repl) exec(ctx context.Context, cmd, arg string) error {
	a := r.app
	switch cmd {
	case "":
		return nil
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "movies":
		sel := ""
		if m := a.Catalog.Selected(); m != nil {
			sel = m.ID
		}
		writeMovies(r.out, a.Catalog.Movies(), sel)
	case "select":
		m, err := r.movieAt(arg)
		if err != nil {
			return err
		}
		a.Catalog.Select(m)
		fmt.Fprintf(r.out, "Selected %s\n", m.Title)
		writeReviews(r.out, a.Reviews.Reviews(), a.Reviews.CanModify)
	case "reviews":
		if a.Catalog.Selected() == nil {
			return cmdError("Select a movie first")
		}
		writeReviews(r.out, a.Reviews.Reviews(), a.Reviews.CanModify)
	case "latest":
		writeLatest(r.out, a.Reviews.Latest())
	case "review":
		return r.submitReview(ctx, arg)
	case "edit":
		rv, err := r.reviewAt(arg)
		if err != nil {
			return err
		}
		if err := a.ReviewForm.Edit(rv); err != nil {
			return cmdError(apperror.Message(err))
		}
		fmt.Fprintf(r.out, "Editing %s %q. Use: review <1-5> <comment>\n", stars(rv.Rating), rv.Comment)
	case "cancel":
		a.ReviewForm.Cancel()
	case "delete":
		rv, err := r.reviewAt(arg)
		if err != nil {
			return err
		}
		if !a.Reviews.CanModify(rv) {
			return cmdError("You can only delete your own reviews")
		}
		return a.Reviews.DeleteReview(ctx, rv.ID)
	case "add-movie":
		a.MovieForm.Reset()
		return r.movieForm(ctx)
	case "edit-movie":
		m := a.Catalog.Selected()
		if m == nil {
			return cmdError("Select a movie first")
		}
		a.MovieForm.Load(*m)
		return r.movieForm(ctx)
	case "delete-movie":
		m := a.Catalog.Selected()
		if m == nil {
			return cmdError("Select a movie first")
		}
		return a.DeleteMovie(ctx, m.ID)
	case "signin":
		a.AuthForm.Mode = form.ModeSignIn
		return r.authForm(ctx)
	case "signup":
		a.AuthForm.Mode = form.ModeSignUp
		return r.authForm(ctx)
	case "signout":
		return a.SignOut(ctx)
	case "whoami":
		r.whoami()
	default:
		return cmdError(fmt.Sprintf("unknown command %q", cmd))
	}
	return nil
}

func (r *repl) movieAt(arg string) (*model.Movie, error) {
	movies := r.app.Catalog.Movies()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(movies) {
		return nil, cmdError(fmt.Sprintf("usage: select <1-%d>", len(movies)))
	}
	m := movies[n-1]
	return &m, nil
}

func (r *repl) reviewAt(arg string) (model.Review, error) {
	rs := r.app.Reviews.Reviews()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(rs) {
		return model.Review{}, cmdError("no such review; run reviews to see the numbers")
	}
	return rs[n-1], nil
}

func (r *repl) submitReview(ctx context.Context, arg string) error {
	if r.app.Catalog.Selected() == nil {
		return cmdError("Select a movie first")
	}
	ratingText, comment, _ := strings.Cut(arg, " ")
	rating, _ := strconv.Atoi(ratingText) // non-numbers become 0 and fail validation
	f := r.app.ReviewForm
	f.Rating, f.Comment = rating, comment
	if err := f.Submit(ctx); err != nil {
		return err
	}
	writeReviews(r.out, r.app.Reviews.Reviews(), r.app.Reviews.CanModify)
	return nil
}

// prompt asks for a value and keeps def when the answer is blank.
func (r *repl) prompt(label, def string) (string, bool) {
	p := label + ": "
	if def != "" {
		p = fmt.Sprintf("%s [%s]: ", label, def)
	}
	v, ok := r.con.ask(p)
	if !ok {
		return "", false
	}
	if v == "" {
		return def, true
	}
	return v, true
}

func (r *repl) movieForm(ctx context.Context) error {
	f := r.app.MovieForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"Title", &f.Title},
		{"Genre", &f.Genre},
		{"Release year", &f.ReleaseYear},
		{"Poster URL", &f.PosterURL},
	}
	for _, fld := range fields {
		v, ok := r.prompt(fld.label, *fld.dst)
		if !ok {
			return apperror.Cancelled("movie form")
		}
		*fld.dst = v
	}
	_, err := f.Submit(ctx)
	return err
}

func (r *repl) authForm(ctx context.Context) error {
	f := r.app.AuthForm
	var ok bool
	if f.Email, ok = r.prompt("Email", ""); !ok {
		return apperror.Cancelled(f.Mode.String())
	}
	if f.Password, ok = r.prompt("Password", ""); !ok {
		return apperror.Cancelled(f.Mode.String())
	}
	if f.Mode == form.ModeSignUp {
		if f.Username, ok = r.prompt("Username", ""); !ok {
			return apperror.Cancelled(f.Mode.String())
		}
	}
	_, err := f.Submit(ctx)
	if err == nil {
		r.app.Session.Wait()
	}
	return err
}

func (r *repl) whoami() {
	st := r.app.Session.State()
	switch {
	case st.Loading:
		fmt.Fprintln(r.out, "Checking session...")
	case st.User == nil:
		fmt.Fprintln(r.out, "Not signed in.")
	case st.Profile == nil:
		fmt.Fprintf(r.out, "Signed in as %s (no profile)\n", st.User.Email)
	default:
		fmt.Fprintf(r.out, "Signed in as %s <%s>\n", st.Profile.Username, st.User.Email)
	}
}
