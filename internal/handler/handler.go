package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/itchan-dev/postsweb/internal/config"
	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/errors"
	"github.com/itchan-dev/postsweb/internal/markdown"
	"github.com/itchan-dev/postsweb/internal/session"
)

// PostsAPI is what the handlers read directly; mutations go through the
// session's form engines and gates.
type PostsAPI interface {
	GetPost(ctx context.Context, id domain.PostID) (domain.Post, bool, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	mu            sync.RWMutex
	templates     map[string]*template.Template
	Public        config.Public
	TextProcessor *markdown.TextProcessor
	APIClient     PostsAPI
}

func New(templates map[string]*template.Template, publicCfg config.Public, textProcessor *markdown.TextProcessor, apiClient PostsAPI) *Handler {
	return &Handler{
		templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		APIClient:     apiClient,
	}
}

// SetTemplates swaps the template set, used by the development reloader.
func (h *Handler) SetTemplates(templates map[string]*template.Template) {
	h.mu.Lock()
	h.templates = templates
	h.mu.Unlock()
}

func (h *Handler) getTemplate(name string) (*template.Template, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	tmpl, ok := h.templates[name]
	return tmpl, ok
}

// sessionFrom returns the session attached by session.Store.Middleware. It
// answers 500 itself when there is none.
func sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteErrorAndStatusCode(w, fmt.Errorf("no session in request context"))
	}
	return s, ok
}
