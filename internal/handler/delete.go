package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/postsweb/internal/confirm"
	"github.com/itchan-dev/postsweb/internal/domain"
)

// DeleteGetHandler opens the delete confirmation for a post.
func (h *Handler) DeleteGetHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	ret := safeReturn(r.URL.Query().Get("return"), listURL(s.List.Query()))
	g := s.OpenGate(post)
	h.renderWithSurface(w, r, s, http.StatusOK, ret, &post, nil, gateView(g, ret))
}

// DeletePostHandler confirms the delete when action=confirm and closes the
// confirmation otherwise.
func (h *Handler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id := domain.PostID(chi.URLParam(r, "id"))
	ret := safeReturn(r.PostFormValue("return"), listURL(s.List.Query()))

	g, ok := s.Gate(id)
	if !ok {
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}
	if r.PostFormValue("action") != "confirm" {
		s.CloseGate(id)
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}

	err := g.Confirm(r.Context())
	switch {
	case err == nil:
		if ret == postURL(id) {
			ret = listURL(s.List.Query())
		}
	case errors.Is(err, confirm.ErrNotConfirming), errors.Is(err, confirm.ErrDeleteInFlight):
	default:
		// failure notification is queued; the post stays
		s.CloseGate(id)
	}
	http.Redirect(w, r, ret, http.StatusSeeOther)
}
