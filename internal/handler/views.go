package handler

import (
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/itchan-dev/postsweb/internal/confirm"
	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/form"
	"github.com/itchan-dev/postsweb/internal/notify"
	"github.com/itchan-dev/postsweb/internal/validation"
)

// timestampLayout renders as 05.06.25 (14:03).
const timestampLayout = "02.01.06 (15:04)"

// excerptRunes bounds the content shown on list cards.
const excerptRunes = 500

type PostView struct {
	ID          domain.PostID
	Title       string
	Author      string
	ContentHTML template.HTML
	Excerpt     template.HTML
	Created     string
	Updated     string
	Edited      bool
	URL         string
	EditURL     string
	DeleteURL   string
}

type FormView struct {
	ID          domain.FormId
	Heading     string
	SubmitLabel string
	CanSubmit   bool
	Submitting  bool
	Values      validation.PostFields
	Errors      validation.FieldErrors
	Action      string
	CancelURL   string
	Return      string
	Standalone  bool
	Limits      Limits
}

type Limits struct {
	TitleMaxLen  int
	AuthorMaxLen int
}

type GateView struct {
	PostID       domain.PostID
	PostTitle    string
	Action       string
	Return       string
	ConfirmLabel string
	Deleting     bool
}

type NotificationView struct {
	ID          domain.NotificationId
	Title       string
	Description string
	Destructive bool
	Open        bool
	Queued      int
	RefreshMs   int64
	DismissURL  string
}

type SortOption struct {
	Value    domain.SortOrder
	Label    string
	Selected bool
	URL      string
}

type IndexPage struct {
	Posts       []PostView
	Query       domain.Query
	LoadFailed  bool
	SortOptions []SortOption
	SortLabel   string
	CreateURL   string
	Form        *FormView
	Gate        *GateView
}

type PostPage struct {
	Post PostView
	Form *FormView
	Gate *GateView
}

type FormPage struct {
	Form FormView
}

type MessagePage struct {
	Heading string
	Message string
}

func postURL(id domain.PostID) string {
	return "/posts/" + url.PathEscape(id.String())
}

// listURL is the list page for q, with default values left out.
func listURL(q domain.Query) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" && q.Sort != domain.SortDateDesc {
		v.Set("sort", string(q.Sort))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func withReturn(path, ret string) string {
	if ret == "" || ret == "/" {
		return path
	}
	return path + "?" + url.Values{"return": {ret}}.Encode()
}

// safeReturn accepts only local absolute paths.
func safeReturn(ret, fallback string) string {
	if ret == "" || !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") || strings.HasPrefix(ret, "/\\") {
		return fallback
	}
	return ret
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}

func (h *Handler) postView(p domain.Post, ret string) PostView {
	return PostView{
		ID:          p.ID,
		Title:       p.Title,
		Author:      p.Author,
		ContentHTML: h.TextProcessor.Render(p.Content),
		Excerpt:     h.TextProcessor.Excerpt(p.Content, excerptRunes),
		Created:     formatTimestamp(p.CreatedAt),
		Updated:     formatTimestamp(p.UpdatedAt),
		Edited:      p.Edited(),
		URL:         postURL(p.ID),
		EditURL:     withReturn(postURL(p.ID)+"/edit", ret),
		DeleteURL:   withReturn(postURL(p.ID)+"/delete", ret),
	}
}

// formView describes an engine. showErrors is false until the user submitted
// once, so an empty create form does not open with errors.
func formView(e *form.Engine, ret string, showErrors bool) FormView {
	fv := FormView{
		ID:          e.ID(),
		Heading:     e.Title(),
		SubmitLabel: e.SubmitLabel(),
		CanSubmit:   e.CanSubmit(),
		Submitting:  e.State() == form.StateSubmitting,
		Values:      e.Values(),
		CancelURL:   "/forms/" + url.PathEscape(e.ID()) + "/cancel",
		Return:      ret,
		Limits:      Limits{TitleMaxLen: validation.TitleMaxLen, AuthorMaxLen: validation.AuthorMaxLen},
	}
	if e.Mode() == form.ModeEdit {
		fv.Action = postURL(e.PostID()) + "/edit"
	} else {
		fv.Action = "/posts/new"
	}
	if showErrors {
		fv.Errors = e.Errors()
	}
	return fv
}

func gateView(g *confirm.Gate, ret string) *GateView {
	p := g.Post()
	return &GateView{
		PostID:       p.ID,
		PostTitle:    p.Title,
		Action:       postURL(p.ID) + "/delete",
		Return:       ret,
		ConfirmLabel: g.ConfirmLabel(),
		Deleting:     g.State() == confirm.StateDeleting,
	}
}

func notificationView(s notify.Snapshot) *NotificationView {
	if s.Notification == nil {
		return nil
	}
	n := s.Notification
	return &NotificationView{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Destructive: n.Variant == domain.NotificationDestructive,
		Open:        s.Open,
		Queued:      s.Queued,
		RefreshMs:   s.RefreshIn.Milliseconds(),
		DismissURL:  "/notifications/" + url.PathEscape(formatID(n.ID)) + "/dismiss",
	}
}

func sortOptions(q domain.Query) []SortOption {
	opts := make([]SortOption, len(domain.SortOrders))
	for i, o := range domain.SortOrders {
		opts[i] = SortOption{
			Value:    o,
			Label:    o.Label(),
			Selected: o == q.Sort,
			URL:      listURL(domain.Query{Search: q.Search, Sort: o}),
		}
	}
	return opts
}
