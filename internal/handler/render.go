package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/middleware"
	"github.com/itchan-dev/postsweb/internal/session"
	"github.com/itchan-dev/postsweb/internal/surface"
)

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	CSRFToken    string
	Surface      surface.Surface
	Notification *NotificationView
	Path         string // request path, used as return target
}

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

func (h *Handler) initCommonTemplateData(r *http.Request) CommonTemplateData {
	common := CommonTemplateData{
		CSRFToken: middleware.GetCSRFTokenFromContext(r),
		Surface:   surface.FromContext(r.Context()),
		Path:      r.URL.RequestURI(),
	}
	if s, ok := session.FromContext(r.Context()); ok {
		common.Notification = notificationView(s.Presenter.Snapshot())
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := h.getTemplate(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	wrapped := TemplateData{
		Data:   data,
		Common: h.initCommonTemplateData(r),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, wrapped); err != nil {
		logger.FromContext(r.Context()).Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, http.StatusNotFound, "not_found.html", MessagePage{
		Heading: "404 - Not Found",
		Message: "The post you're looking for doesn't exist.",
	})
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderTemplate(w, r, status, "error.html", MessagePage{
		Heading: http.StatusText(status),
		Message: message,
	})
}

// NotFoundHandler answers unknown routes with the not found page.
func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, http.StatusNotFound, "not_found.html", MessagePage{
		Heading: "404 - Not Found",
		Message: "The page you're looking for doesn't exist.",
	})
}
