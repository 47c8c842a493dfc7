package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/form"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/session"
	"github.com/itchan-dev/postsweb/internal/validation"
)

// standaloneView renders a form as its own page instead of over another one.
const standaloneView = "page"

func fieldsFromForm(r *http.Request) validation.PostFields {
	return validation.PostFields{
		Title: r.PostFormValue("title"),
		// browsers submit textarea line breaks as CRLF
		Content: strings.ReplaceAll(r.PostFormValue("content"), "\r\n", "\n"),
		Author:  r.PostFormValue("author"),
	}
}

func isStandalone(r *http.Request) bool {
	return r.URL.Query().Get("view") == standaloneView || r.PostFormValue("view") == standaloneView
}

// formURL is where a form is reopened after a failed submit.
func formURL(e *form.Engine, ret string, standalone bool) string {
	path := "/posts/new"
	if e.Mode() == form.ModeEdit {
		path = postURL(e.PostID()) + "/edit"
	}
	v := url.Values{}
	if ret != "" && ret != "/" {
		v.Set("return", ret)
	}
	if standalone {
		v.Set("view", standaloneView)
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, s *session.Session, status int, e *form.Engine, ret string, post *domain.Post, showErrors bool) {
	fv := formView(e, ret, showErrors)
	if isStandalone(r) {
		fv.Standalone = true
		h.renderTemplate(w, r, status, "form.html", FormPage{Form: fv})
		return
	}
	h.renderWithSurface(w, r, s, status, ret, post, &fv, nil)
}

func (h *Handler) NewPostGetHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	ret := safeReturn(r.URL.Query().Get("return"), listURL(s.List.Query()))
	h.renderForm(w, r, s, http.StatusOK, s.OpenCreateForm(), ret, nil, false)
}

func (h *Handler) NewPostPostHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	ret := safeReturn(r.PostFormValue("return"), listURL(s.List.Query()))
	e, ok := s.Form(r.PostFormValue("form_id"))
	if !ok || e.Mode() != form.ModeCreate {
		// closed or expired form, nothing to submit
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}
	h.submitForm(w, r, s, e, ret)
}

func (h *Handler) EditPostGetHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	ret := safeReturn(r.URL.Query().Get("return"), listURL(s.List.Query()))
	h.renderForm(w, r, s, http.StatusOK, s.OpenEditForm(post), ret, &post, false)
}

func (h *Handler) EditPostPostHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id := domain.PostID(chi.URLParam(r, "id"))
	ret := safeReturn(r.PostFormValue("return"), listURL(s.List.Query()))
	e, ok := s.Form(r.PostFormValue("form_id"))
	if !ok || e.Mode() != form.ModeEdit || e.PostID() != id {
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}
	h.submitForm(w, r, s, e, ret)
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request, s *session.Session, e *form.Engine, ret string) {
	_, err := e.SubmitFields(r.Context(), fieldsFromForm(r))
	switch {
	case err == nil:
		http.Redirect(w, r, ret, http.StatusSeeOther)
	case errors.Is(err, form.ErrInvalid):
		var post *domain.Post
		if e.Mode() == form.ModeEdit && ret == postURL(e.PostID()) {
			if p, found, err := h.APIClient.GetPost(r.Context(), e.PostID()); err == nil && found {
				post = &p
			}
		}
		h.renderForm(w, r, s, http.StatusUnprocessableEntity, e, ret, post, true)
	case errors.Is(err, form.ErrSubmitInFlight), errors.Is(err, form.ErrClosed):
		// a duplicate submit; the first one decides where the user ends up
		logger.FromContext(r.Context()).Debug("duplicate form submit", "form_id", e.ID(), "error", err)
		http.Redirect(w, r, ret, http.StatusSeeOther)
	default:
		// unchanged edit or remote failure: the draft stays open and the
		// failure notification is already queued
		http.Redirect(w, r, formURL(e, ret, isStandalone(r)), http.StatusSeeOther)
	}
}

// FormCancelHandler discards a form draft.
func (h *Handler) FormCancelHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	ret := safeReturn(r.PostFormValue("return"), listURL(s.List.Query()))
	s.CloseForm(chi.URLParam(r, "form"))
	http.Redirect(w, r, ret, http.StatusSeeOther)
}
