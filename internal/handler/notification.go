package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/errors"
	"github.com/itchan-dev/postsweb/internal/logger"
)

func formatID(id domain.NotificationId) string {
	return strconv.FormatUint(id, 10)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// DismissNotificationHandler closes the visible notification. Scripts get 204,
// plain form posts are redirected back.
func (h *Handler) DismissNotificationHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errors.WriteErrorAndStatusCode(w, &errors.ErrorWithStatusCode{Message: "Invalid notification id", StatusCode: http.StatusBadRequest})
		return
	}
	s.Presenter.Dismiss(id)

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return"), "/"), http.StatusSeeOther)
}

// NotificationResponse is the body of GET /api/notifications/current.
type NotificationResponse struct {
	Notification *NotificationJSON `json:"notification"`
	Open         bool              `json:"open"`
	Queued       int               `json:"queued"`
	RefreshInMs  int64             `json:"refresh_in_ms"`
}

type NotificationJSON struct {
	ID          domain.NotificationId `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Variant     string                `json:"variant"`
	DismissURL  string                `json:"dismiss_url"`
}

// CurrentNotificationHandler reports the notification slot so the page script
// can follow timed transitions without reloading.
func (h *Handler) CurrentNotificationHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var resp NotificationResponse
	if nv := notificationView(s.Presenter.Snapshot()); nv != nil {
		variant := string(domain.NotificationDefault)
		if nv.Destructive {
			variant = string(domain.NotificationDestructive)
		}
		resp = NotificationResponse{
			Notification: &NotificationJSON{
				ID:          nv.ID,
				Title:       nv.Title,
				Description: nv.Description,
				Variant:     variant,
				DismissURL:  nv.DismissURL,
			},
			Open:        nv.Open,
			Queued:      nv.Queued,
			RefreshInMs: nv.RefreshMs,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode notification", "error", err)
	}
}
