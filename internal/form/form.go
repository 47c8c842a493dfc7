// Package form implements the mutation form engine that backs the create and
// edit surfaces. An engine lives for one open form and issues at most one
// mutation at a time.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/metrics"
	"github.com/itchan-dev/postsweb/internal/validation"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateClosed:
		return "closed"
	default:
		return "editing"
	}
}

var (
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrClosed         = errors.New("form is closed")
	ErrNotDirty       = errors.New("no field differs from the original post")
	ErrInvalid        = validation.ErrInvalid
)

const (
	failureTitle       = "Error"
	failureDescription = "There was an error. Please try again."
)

type Mutator interface {
	CreatePost(ctx context.Context, data domain.CreatePostRequest) (domain.Post, error)
	UpdatePost(ctx context.Context, id domain.PostID, data domain.UpdatePostRequest) (domain.Post, error)
}

type Notifier interface {
	Notify(title, description string) domain.Notification
	NotifyError(title, description string) domain.Notification
}

type Validator interface {
	Validate(fields validation.PostFields) validation.FieldErrors
}

type Deps struct {
	Mutator  Mutator
	Notifier Notifier
	Schema   Validator
}

type Engine struct {
	mu         sync.Mutex
	id         domain.FormId
	mode       Mode
	postID     domain.PostID
	initial    validation.PostFields
	values     validation.PostFields
	state      State
	lastErr    error
	deps       Deps
	onComplete func(context.Context, domain.Post)
}

// NewCreate opens an empty form. onComplete runs after a successful submit,
// before the success notification.
func NewCreate(id domain.FormId, deps Deps, onComplete func(context.Context, domain.Post)) *Engine {
	return &Engine{id: id, mode: ModeCreate, deps: deps, onComplete: onComplete}
}

// NewEdit opens a form pre-filled from post.
func NewEdit(id domain.FormId, post domain.Post, deps Deps, onComplete func(context.Context, domain.Post)) *Engine {
	fields := validation.PostFields{Title: post.Title, Content: post.Content, Author: post.Author}
	return &Engine{
		id:         id,
		mode:       ModeEdit,
		postID:     post.ID,
		initial:    fields,
		values:     fields,
		deps:       deps,
		onComplete: onComplete,
	}
}

func (e *Engine) ID() domain.FormId     { return e.id }
func (e *Engine) Mode() Mode            { return e.mode }
func (e *Engine) PostID() domain.PostID { return e.postID }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Values() validation.PostFields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values
}

// Set replaces the field values. Only allowed while editing.
func (e *Engine) Set(fields validation.PostFields) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	e.values = fields
	return nil
}

// Dirty reports whether any field differs from the initial snapshot.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values != e.initial
}

// Errors returns the current validation failures.
func (e *Engine) Errors() validation.FieldErrors {
	return e.deps.Schema.Validate(e.Values())
}

// LastError is the error of the most recent failed submission.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// CanSubmit is the enabled state of the submit affordance.
func (e *Engine) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkLocked() == nil
}

func (e *Engine) checkLocked() error {
	if err := e.editableLocked(); err != nil {
		return err
	}
	if fe := e.deps.Schema.Validate(e.values); fe != nil {
		return fe
	}
	if e.mode == ModeEdit && e.values == e.initial {
		return ErrNotDirty
	}
	return nil
}

func (e *Engine) editableLocked() error {
	switch e.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateClosed:
		return ErrClosed
	}
	return nil
}

// SubmitFields sets the values and submits them in one step, so two racing
// submissions cannot interleave their values.
func (e *Engine) SubmitFields(ctx context.Context, fields validation.PostFields) (domain.Post, error) {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		metrics.Mutation(e.op(), "rejected")
		return domain.Post{}, err
	}
	e.values = fields
	return e.submitLocked(ctx)
}

// Submit issues the mutation for the current values. It fails without a
// remote call when the form is not submittable.
func (e *Engine) Submit(ctx context.Context) (domain.Post, error) {
	e.mu.Lock()
	return e.submitLocked(ctx)
}

// submitLocked is entered with e.mu held and releases it.
func (e *Engine) submitLocked(ctx context.Context) (domain.Post, error) {
	if err := e.checkLocked(); err != nil {
		e.mu.Unlock()
		metrics.Mutation(e.op(), "rejected")
		return domain.Post{}, err
	}
	e.state = StateSubmitting
	values, initial := e.values, e.initial
	e.mu.Unlock()

	var (
		post domain.Post
		err  error
	)
	if e.mode == ModeCreate {
		post, err = e.deps.Mutator.CreatePost(ctx, domain.CreatePostRequest{
			Title:   values.Title,
			Content: values.Content,
			Author:  values.Author,
		})
	} else {
		post, err = e.deps.Mutator.UpdatePost(ctx, e.postID, changes(initial, values))
	}

	e.mu.Lock()
	if err != nil {
		e.state = StateEditing
		e.lastErr = err
		e.mu.Unlock()

		logger.FromContext(ctx).Error("post mutation failed", "op", e.op(), "post_id", e.postID, "error", err)
		metrics.Mutation(e.op(), "failure")
		e.deps.Notifier.NotifyError(failureTitle, failureDescription)
		return domain.Post{}, err
	}
	e.state = StateClosed
	e.lastErr = nil
	e.mu.Unlock()

	metrics.Mutation(e.op(), "success")
	if e.onComplete != nil {
		e.onComplete(ctx, post)
	}
	if e.mode == ModeCreate {
		e.deps.Notifier.Notify("Post created", "Your post has been created.")
	} else {
		e.deps.Notifier.Notify("Post updated", "Your post has been updated.")
	}
	return post, nil
}

// Cancel closes the form and discards the draft. It has no effect while a
// submission is in flight.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSubmitting {
		return false
	}
	e.state = StateClosed
	return true
}

// SubmitLabel is the text of the submit button.
func (e *Engine) SubmitLabel() string {
	submitting := e.State() == StateSubmitting
	switch {
	case e.mode == ModeEdit && submitting:
		return "Updating..."
	case e.mode == ModeEdit:
		return "Update Post"
	case submitting:
		return "Creating..."
	default:
		return "Create Post"
	}
}

// Title is the heading of the surface hosting the form.
func (e *Engine) Title() string {
	if e.mode == ModeEdit {
		return "Edit Post"
	}
	return "Create Post"
}

func (e *Engine) op() string {
	if e.mode == ModeEdit {
		return "update"
	}
	return "create"
}

func changes(initial, values validation.PostFields) domain.UpdatePostRequest {
	var req domain.UpdatePostRequest
	if values.Title != initial.Title {
		req.Title = &values.Title
	}
	if values.Content != initial.Content {
		req.Content = &values.Content
	}
	if values.Author != initial.Author {
		req.Author = &values.Author
	}
	return req
}
