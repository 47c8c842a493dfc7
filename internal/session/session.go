// Package session keeps the UI state of each browser between requests: the
// notification presenter, the list query, open forms and delete confirmations.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itchan-dev/postsweb/internal/confirm"
	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/form"
	"github.com/itchan-dev/postsweb/internal/listview"
	"github.com/itchan-dev/postsweb/internal/notify"
)

// API is the part of the posts client a session drives.
type API interface {
	listview.Lister
	form.Mutator
	confirm.Deleter
}

type Session struct {
	ID        domain.SessionId
	Presenter *notify.Presenter
	List      *listview.Controller

	api   API
	deps  form.Deps
	mu    sync.Mutex
	forms map[domain.FormId]*form.Engine
	gates map[domain.PostID]*confirm.Gate
	timer *time.Timer // idle expiry, owned by Store
}

func newSession(id domain.SessionId, opts Options) *Session {
	presenterOpts := opts.Notifications
	onPresent := presenterOpts.OnPresent
	presenterOpts.OnPresent = func(n domain.Notification) {
		if opts.OnPresent != nil {
			opts.OnPresent(id, n)
		}
		if onPresent != nil {
			onPresent(n)
		}
	}
	presenter := notify.New(presenterOpts)

	return &Session{
		ID:        id,
		Presenter: presenter,
		List:      listview.New(opts.API, opts.Locale),
		api:       opts.API,
		deps:      form.Deps{Mutator: opts.API, Notifier: presenter, Schema: opts.Schema},
		forms:     make(map[domain.FormId]*form.Engine),
		gates:     make(map[domain.PostID]*confirm.Gate),
	}
}

// OpenCreateForm returns the open create form, opening one if there is none,
// so a reloaded page keeps its draft.
func (s *Session) OpenCreateForm() *form.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.forms {
		if e.Mode() == form.ModeCreate && e.State() != form.StateClosed {
			return e
		}
	}
	id := uuid.NewString()
	e := form.NewCreate(id, s.deps, s.completeForm(id))
	s.forms[id] = e
	return e
}

// OpenEditForm returns the open edit form for post, opening one pre-filled
// from post if there is none.
func (s *Session) OpenEditForm(post domain.Post) *form.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.forms {
		if e.Mode() == form.ModeEdit && e.PostID() == post.ID && e.State() != form.StateClosed {
			return e
		}
	}
	id := uuid.NewString()
	e := form.NewEdit(id, post, s.deps, s.completeForm(id))
	s.forms[id] = e
	return e
}

func (s *Session) completeForm(id domain.FormId) func(context.Context, domain.Post) {
	return func(ctx context.Context, _ domain.Post) {
		s.CloseForm(id)
		s.List.Refresh(ctx)
	}
}

func (s *Session) Form(id domain.FormId) (*form.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.forms[id]
	return e, ok
}

// CloseForm cancels and discards a form. A form with a submission in flight
// is kept and false is returned.
func (s *Session) CloseForm(id domain.FormId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.forms[id]
	if !ok {
		return true
	}
	if !e.Cancel() {
		return false
	}
	delete(s.forms, id)
	return true
}

// Forms returns the open forms, oldest id first.
func (s *Session) Forms() []*form.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*form.Engine, 0, len(s.forms))
	for _, e := range s.forms {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// OpenGate returns the delete gate for post in the confirming state.
func (s *Session) OpenGate(post domain.Post) *confirm.Gate {
	s.mu.Lock()
	g, ok := s.gates[post.ID]
	if !ok {
		g = confirm.New(post, s.api, s.Presenter, func(ctx context.Context, id domain.PostID) {
			s.CloseGate(id)
			s.List.Refresh(ctx)
		})
		s.gates[post.ID] = g
	}
	s.mu.Unlock()

	g.Trigger()
	return g
}

func (s *Session) Gate(id domain.PostID) (*confirm.Gate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[id]
	return g, ok
}

// CloseGate dismisses and discards a gate. A gate with a delete in flight is
// kept and false is returned.
func (s *Session) CloseGate(id domain.PostID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[id]
	if !ok {
		return true
	}
	if g.State() == confirm.StateDeleting {
		return false
	}
	g.Dismiss()
	delete(s.gates, id)
	return true
}
