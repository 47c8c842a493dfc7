package handler

import (
	"net/http"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/session"
)

func queryFromRequest(r *http.Request) domain.Query {
	return domain.Query{
		Search: r.URL.Query().Get("q"),
		Sort:   domain.ParseSortOrder(r.URL.Query().Get("sort")),
	}
}

// IndexGetHandler renders the post list for ?q= and ?sort=.
func (h *Handler) IndexGetHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	page := h.indexPage(r, s, queryFromRequest(r))
	h.renderTemplate(w, r, http.StatusOK, "index.html", page)
}

// indexPage runs the list pipeline for q. Open surfaces are added by callers.
func (h *Handler) indexPage(r *http.Request, s *session.Session, q domain.Query) IndexPage {
	view := s.List.Show(r.Context(), q)
	ret := listURL(view.Query)

	posts := make([]PostView, len(view.Posts))
	for i, p := range view.Posts {
		posts[i] = h.postView(p, ret)
	}
	return IndexPage{
		Posts:       posts,
		Query:       view.Query,
		LoadFailed:  view.LoadFailed,
		SortOptions: sortOptions(view.Query),
		SortLabel:   view.Query.Sort.Label(),
		CreateURL:   withReturn("/posts/new", ret),
	}
}
