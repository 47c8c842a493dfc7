// Package confirm implements the two-step delete: a gate opened for one post
// that deletes only after an explicit confirm.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/metrics"
)

type State int

const (
	StateIdle State = iota
	StateConfirming
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateConfirming:
		return "confirming"
	case StateDeleting:
		return "deleting"
	default:
		return "idle"
	}
}

var (
	ErrNotConfirming  = errors.New("no delete is awaiting confirmation")
	ErrDeleteInFlight = errors.New("delete already in flight")
)

type Deleter interface {
	DeletePost(ctx context.Context, id domain.PostID) error
}

type Notifier interface {
	Notify(title, description string) domain.Notification
	NotifyError(title, description string) domain.Notification
}

// Gate guards the delete of a single post.
type Gate struct {
	mu        sync.Mutex
	post      domain.Post
	state     State
	deleter   Deleter
	notifier  Notifier
	onDeleted func(context.Context, domain.PostID)
}

// New returns an idle gate. onDeleted runs after a successful delete, before
// the success notification.
func New(post domain.Post, deleter Deleter, notifier Notifier, onDeleted func(context.Context, domain.PostID)) *Gate {
	return &Gate{post: post, deleter: deleter, notifier: notifier, onDeleted: onDeleted}
}

func (g *Gate) Post() domain.Post { return g.post }

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Trigger opens the confirmation step. No remote call is made.
func (g *Gate) Trigger() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateIdle {
		g.state = StateConfirming
	}
}

// Cancel closes the confirmation without deleting. Returns false while the
// delete is in flight.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateDeleting {
		return false
	}
	g.state = StateIdle
	return true
}

// Dismiss is Cancel for closing the surface without pressing cancel.
func (g *Gate) Dismiss() bool { return g.Cancel() }

// Confirm issues exactly one delete for the gated post.
func (g *Gate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case StateIdle:
		g.mu.Unlock()
		metrics.Mutation("delete", "rejected")
		return ErrNotConfirming
	case StateDeleting:
		g.mu.Unlock()
		metrics.Mutation("delete", "rejected")
		return ErrDeleteInFlight
	}
	g.state = StateDeleting
	g.mu.Unlock()

	err := g.deleter.DeletePost(ctx, g.post.ID)

	g.mu.Lock()
	g.state = StateIdle
	g.mu.Unlock()

	if err != nil {
		logger.FromContext(ctx).Error("delete post failed", "post_id", g.post.ID, "error", err)
		metrics.Mutation("delete", "failure")
		g.notifier.NotifyError("Error", "There was an error deleting your post. Please try again.")
		return err
	}

	metrics.Mutation("delete", "success")
	if g.onDeleted != nil {
		g.onDeleted(ctx, g.post.ID)
	}
	g.notifier.Notify("Post deleted", fmt.Sprintf("%q has been deleted.", g.post.Title))
	return nil
}

// ConfirmLabel is the text of the confirm button.
func (g *Gate) ConfirmLabel() string {
	if g.State() == StateDeleting {
		return "Deleting..."
	}
	return "Delete"
}
