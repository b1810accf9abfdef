// Package ui defines the boundary between the view-models and whatever
// presents them: transient notifications and interactive confirmation.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/iliyamo/cinereviews/internal/apperror"
)

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Always is a Confirmer that answers yes.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Never is a Confirmer that answers no.
var Never Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

// Report emits exactly one error notification for err.  The error's own
// message is used verbatim; fallback covers errors without one.
func Report(n Notifier, err error, fallback string) {
	msg := fallback
	if err != nil {
		if m := apperror.Message(err); m != "" {
			msg = m
		}
	}
	n.Error(msg)
}

// Kind distinguishes recorded notifications.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is one recorded message.
type Notification struct {
	Kind    Kind
	Message string
}

// Recorder is a Notifier that keeps every message.  Tests use it to count
// notifications.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Kind: k, Message: msg})
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Errors returns the recorded error messages.
func (r *Recorder) Errors() []string { return r.messages(KindError) }

// Successes returns the recorded success messages.
func (r *Recorder) Successes() []string { return r.messages(KindSuccess) }

func (r *Recorder) messages(k Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if n.Kind == k {
			out = append(out, n.Message)
		}
	}
	return out
}

// Writer prints notifications as lines on W.
type Writer struct {
	mu sync.Mutex
	W  io.Writer
}

func (w *Writer) Success(msg string) { w.printf("✓ %s\n", msg) }
func (w *Writer) Error(msg string)   { w.printf("✗ %s\n", msg) }

func (w *Writer) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.W, format, args...)
}

// Log forwards notifications to a slog.Logger.
type Log struct {
	L *slog.Logger
}

func (l Log) Success(msg string) { l.L.Info("notify", "kind", KindSuccess, "msg", msg) }
func (l Log) Error(msg string)   { l.L.Warn("notify", "kind", KindError, "msg", msg) }

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
