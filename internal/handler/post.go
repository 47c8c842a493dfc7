package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/session"
)

// loadPost fetches the post named by the {id} route param. It renders the
// not found or error page itself and reports false then.
func (h *Handler) loadPost(w http.ResponseWriter, r *http.Request) (domain.Post, bool) {
	id := domain.PostID(chi.URLParam(r, "id"))
	post, found, err := h.APIClient.GetPost(r.Context(), id)
	if err != nil {
		logger.FromContext(r.Context()).Error("get post failed", "post_id", id, "error", err)
		h.renderError(w, r, http.StatusBadGateway, "The post could not be loaded. Please try again.")
		return domain.Post{}, false
	}
	if !found {
		h.renderNotFound(w, r)
		return domain.Post{}, false
	}
	return post, true
}

func (h *Handler) PostGetHandler(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	h.renderTemplate(w, r, http.StatusOK, "post.html", h.postPage(post))
}

func (h *Handler) postPage(post domain.Post) PostPage {
	return PostPage{Post: h.postView(post, postURL(post.ID))}
}

// renderWithSurface renders a form or delete confirmation over the page it
// was opened from: the post page when ret points at post, the list otherwise.
func (h *Handler) renderWithSurface(w http.ResponseWriter, r *http.Request, s *session.Session, status int, ret string, post *domain.Post, f *FormView, g *GateView) {
	if post != nil && ret == postURL(post.ID) {
		page := h.postPage(*post)
		page.Form, page.Gate = f, g
		h.renderTemplate(w, r, status, "post.html", page)
		return
	}
	page := h.indexPage(r, s, s.List.Query())
	page.Form, page.Gate = f, g
	h.renderTemplate(w, r, status, "index.html", page)
}
