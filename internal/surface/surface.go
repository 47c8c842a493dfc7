// Package surface picks how modal content is presented: a centered overlay
// dialog on wide screens or a bottom sheet on narrow ones. The choice is made
// once per request and every modal view renders through it.
package surface

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type Kind string

const (
	KindOverlay Kind = "overlay"
	KindSheet   Kind = "sheet"
)

// Breakpoint is the viewport width below which the sheet is used.
const Breakpoint = 768

// ViewportCookie is written by the page script with the Kind it measured.
// A bare width in px is accepted too.
const ViewportCookie = "viewport"

// ClientHint is the request header consulted when no viewport is known.
const ClientHint = "Sec-CH-UA-Mobile"

// Surface is read by the shared modal frame template.
type Surface interface {
	Kind() Kind
	// Class is the CSS class of the modal container.
	Class() string
	// Handle reports whether a drag handle is drawn above the content.
	Handle() bool
	// CloseButton reports whether dismissal is an explicit full-width button in
	// the footer rather than a corner icon.
	CloseButton() bool
	// HeaderAlign is the text alignment of title and description.
	HeaderAlign() string
}

type Overlay struct{}

func (Overlay) Kind() Kind          { return KindOverlay }
func (Overlay) Class() string       { return "surface surface-overlay" }
func (Overlay) Handle() bool        { return false }
func (Overlay) CloseButton() bool   { return false }
func (Overlay) HeaderAlign() string { return "center" }

type Sheet struct{}

func (Sheet) Kind() Kind          { return KindSheet }
func (Sheet) Class() string       { return "surface surface-sheet" }
func (Sheet) Handle() bool        { return true }
func (Sheet) CloseButton() bool   { return true }
func (Sheet) HeaderAlign() string { return "left" }

func For(k Kind) Surface {
	if k == KindSheet {
		return Sheet{}
	}
	return Overlay{}
}

// Classifier decides between overlay and sheet for a request.
type Classifier struct {
	Breakpoint int
}

// Classify prefers the measured viewport, then the mobile client hint, then
// the User-Agent. Unknown clients get the overlay.
func (c Classifier) Classify(r *http.Request) Kind {
	bp := c.Breakpoint
	if bp <= 0 {
		bp = Breakpoint
	}
	if cookie, err := r.Cookie(ViewportCookie); err == nil {
		switch k := Kind(cookie.Value); k {
		case KindSheet, KindOverlay:
			return k
		}
		if w, err := strconv.Atoi(cookie.Value); err == nil && w > 0 {
			if w < bp {
				return KindSheet
			}
			return KindOverlay
		}
	}
	switch r.Header.Get(ClientHint) {
	case "?1":
		return KindSheet
	case "?0":
		return KindOverlay
	}
	if strings.Contains(r.UserAgent(), "Mobi") {
		return KindSheet
	}
	return KindOverlay
}

type ctxKey struct{}

// Middleware classifies the request once and stores the surface in its context.
func (c Classifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(r.Context(), For(c.Classify(r)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NewContext(ctx context.Context, s Surface) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the surface stored by Middleware, or the overlay.
func FromContext(ctx context.Context) Surface {
	if s, ok := ctx.Value(ctxKey{}).(Surface); ok {
		return s
	}
	return Overlay{}
}
