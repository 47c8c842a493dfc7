// Package listview runs the fetch, filter and sort pipeline behind the post list.
package listview

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/logger"
)

type Lister interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
}

// View is what the list page renders. LoadFailed is set when the fetch failed;
// Posts is empty then, same as a genuinely empty collection.
type View struct {
	Posts      []domain.Post
	Query      domain.Query
	LoadFailed bool
}

// bokmål and the macrolanguage tag load the root table in x/text; Nynorsk
// carries the Norwegian tailoring (Æ Ø Å after Z).
var collationAlias = map[string]string{
	"nb": "nn",
	"no": "nn",
}

// NewCollator returns the title collator for a BCP 47 tag, falling back to
// the root collation when the tag does not parse.
func NewCollator(locale string) *collate.Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		return collate.New(language.Und)
	}
	if base, _ := tag.Base(); collationAlias[base.String()] != "" {
		tag = language.Make(collationAlias[base.String()])
	}
	return collate.New(tag)
}

// Apply filters and sorts posts for q. The input slice is not modified.
// col is not safe for concurrent use; callers serialize access to it.
func Apply(posts []domain.Post, q domain.Query, col *collate.Collator) []domain.Post {
	out := make([]domain.Post, 0, len(posts))
	term := strings.ToLower(q.Search)
	for _, p := range posts {
		if term == "" || matches(p, term) {
			out = append(out, p)
		}
	}

	switch domain.ParseSortOrder(string(q.Sort)) {
	case domain.SortDateAsc:
		slices.SortStableFunc(out, func(a, b domain.Post) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case domain.SortTitleAsc:
		slices.SortStableFunc(out, func(a, b domain.Post) int {
			return col.CompareString(a.Title, b.Title)
		})
	case domain.SortTitleDesc:
		slices.SortStableFunc(out, func(a, b domain.Post) int {
			return col.CompareString(b.Title, a.Title)
		})
	default:
		slices.SortStableFunc(out, func(a, b domain.Post) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

func matches(p domain.Post, term string) bool {
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term) ||
		strings.Contains(strings.ToLower(p.Author), term)
}

// Controller keeps the list state of one session.
type Controller struct {
	mu     sync.Mutex
	lister Lister
	col    *collate.Collator
	view   View
}

func New(lister Lister, locale string) *Controller {
	return &Controller{
		lister: lister,
		col:    NewCollator(locale),
		view:   View{Query: domain.Query{Sort: domain.SortDateDesc}},
	}
}

// View returns the last computed view without fetching.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Query() domain.Query {
	return c.View().Query
}

// Load runs the pipeline with the current query.
func (c *Controller) Load(ctx context.Context) View {
	return c.run(ctx, c.Query())
}

// SetSearch changes the search term and re-runs the pipeline.
func (c *Controller) SetSearch(ctx context.Context, term string) View {
	q := c.Query()
	q.Search = term
	return c.run(ctx, q)
}

// SetSort changes the sort order and re-runs the pipeline.
func (c *Controller) SetSort(ctx context.Context, order domain.SortOrder) View {
	q := c.Query()
	q.Sort = domain.ParseSortOrder(string(order))
	return c.run(ctx, q)
}

// Refresh re-runs the pipeline with the current query after a mutation.
func (c *Controller) Refresh(ctx context.Context) View {
	return c.run(ctx, c.Query())
}

// Show fetches and returns the view for q. Every page render goes through
// here, so a rendered list is never older than its request.
func (c *Controller) Show(ctx context.Context, q domain.Query) View {
	q.Sort = domain.ParseSortOrder(string(q.Sort))
	return c.run(ctx, q)
}

func (c *Controller) run(ctx context.Context, q domain.Query) View {
	posts, err := c.lister.ListPosts(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("list posts failed, showing empty list", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{Query: q, LoadFailed: err != nil}
	if err == nil {
		v.Posts = Apply(posts, q, c.col)
	} else {
		v.Posts = []domain.Post{}
	}
	c.view = v
	return v
}
