package listview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/postsweb/internal/apiclient"
	"github.com/itchan-dev/postsweb/internal/apiclient/apitest"
	"github.com/itchan-dev/postsweb/internal/domain"
)

type MockLister struct {
	posts []domain.Post
	err   error
	calls atomic.Int32
}

func (m *MockLister) ListPosts(context.Context) ([]domain.Post, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Post(nil), m.posts...), nil
}

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func post(id, title string, createdAt time.Time) domain.Post {
	return domain.Post{ID: domain.PostID(id), Title: title, Content: "body " + id, Author: "author " + id, CreatedAt: createdAt, UpdatedAt: createdAt}
}

func ids(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID.String()
	}
	return out
}

func TestApplySort(t *testing.T) {
	posts := []domain.Post{
		post("1", "banana", t0),
		post("2", "Æble", t0.Add(time.Hour)),
		post("3", "apple", t0.Add(2*time.Hour)),
		post("4", "Zebra", t0.Add(-time.Hour)),
	}
	col := NewCollator("nb")

	tests := []struct {
		order domain.SortOrder
		want  []string
	}{
		{domain.SortDateDesc, []string{"3", "2", "1", "4"}},
		{domain.SortDateAsc, []string{"4", "1", "2", "3"}},
		// Norwegian collation puts Æ after Z.
		{domain.SortTitleAsc, []string{"3", "1", "4", "2"}},
		{domain.SortTitleDesc, []string{"2", "4", "1", "3"}},
		{"unknown", []string{"3", "2", "1", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := Apply(posts, domain.Query{Sort: tt.order}, col)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(posts), "input is not reordered")
}

func TestApplySortIsStable(t *testing.T) {
	posts := []domain.Post{post("1", "same", t0), post("2", "same", t0), post("3", "same", t0)}
	col := NewCollator("nb")
	for _, order := range domain.SortOrders {
		assert.Equal(t, []string{"1", "2", "3"}, ids(Apply(posts, domain.Query{Sort: order}, col)), order)
	}
}

func TestApplyFilter(t *testing.T) {
	posts := []domain.Post{
		{ID: "1", Title: "Go tips", Content: "channels", Author: "Rob", CreatedAt: t0},
		{ID: "2", Title: "Cooking", Content: "Use GOOD butter", Author: "Julia", CreatedAt: t0.Add(time.Minute)},
		{ID: "3", Title: "Travel", Content: "Bergen", Author: "Gopher", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "4", Title: "Music", Content: "jazz", Author: "Miles", CreatedAt: t0.Add(3 * time.Minute)},
	}
	col := NewCollator("nb")

	got := Apply(posts, domain.Query{Search: "GO", Sort: domain.SortDateAsc}, col)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got), "matches title, content and author case-insensitively")

	assert.Empty(t, Apply(posts, domain.Query{Search: "xyz"}, col))
	assert.Len(t, Apply(posts, domain.Query{}, col), 4)
}

func TestApplyIdempotent(t *testing.T) {
	posts := []domain.Post{post("1", "b", t0), post("2", "a", t0.Add(time.Hour)), post("3", "c", t0.Add(-time.Hour))}
	col := NewCollator("nb")
	for _, order := range domain.SortOrders {
		q := domain.Query{Search: "", Sort: order}
		once := Apply(posts, q, col)
		twice := Apply(once, q, col)
		assert.Equal(t, ids(once), ids(twice), order)
	}
}

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("title sort", func(t *testing.T) {
		l := &MockLister{posts: []domain.Post{post("1", "B", t0), post("2", "A", t0.Add(time.Hour))}}
		c := New(l, "nb")

		assert.Equal(t, []string{"2", "1"}, ids(c.Load(ctx).Posts))
		v := c.SetSort(ctx, domain.SortTitleAsc)
		assert.Equal(t, []string{"2", "1"}, ids(v.Posts))
		assert.Equal(t, "A", v.Posts[0].Title)
		assert.Equal(t, domain.SortTitleAsc, c.Query().Sort)
		assert.Equal(t, int32(2), l.calls.Load(), "each change fetches")
	})

	t.Run("search without match", func(t *testing.T) {
		l := &MockLister{posts: []domain.Post{post("1", "B", t0), post("2", "A", t0)}}
		c := New(l, "nb")

		v := c.SetSearch(ctx, "xyz")
		assert.Empty(t, v.Posts)
		assert.False(t, v.LoadFailed)
		assert.Equal(t, "xyz", v.Query.Search)
		assert.Equal(t, int32(1), l.calls.Load())
	})

	t.Run("fetch failure degrades to empty list", func(t *testing.T) {
		l := &MockLister{err: errors.New("boom")}
		c := New(l, "nb")

		v := c.Load(ctx)
		assert.NotNil(t, v.Posts)
		assert.Empty(t, v.Posts)
		assert.True(t, v.LoadFailed)
	})

	t.Run("refresh keeps query", func(t *testing.T) {
		l := &MockLister{posts: []domain.Post{post("1", "Hello", t0)}}
		c := New(l, "nb")
		q := domain.Query{Search: "hel", Sort: domain.SortTitleAsc}

		c.Show(ctx, q)
		require.Equal(t, int32(1), l.calls.Load())

		l.posts = nil
		v := c.Refresh(ctx)
		assert.Equal(t, q, v.Query)
		assert.Empty(t, v.Posts)
		assert.Equal(t, int32(2), l.calls.Load())
	})

	t.Run("every show fetches after a refresh", func(t *testing.T) {
		l := &MockLister{posts: []domain.Post{post("1", "Hello", t0)}}
		c := New(l, "nb")
		q := c.Query()

		c.Refresh(ctx)
		l.posts = append(l.posts, post("2", "Added elsewhere", t0.Add(time.Hour)))

		v := c.Show(ctx, q)
		assert.Equal(t, []string{"2", "1"}, ids(v.Posts))
		c.Show(ctx, q)
		assert.Equal(t, int32(3), l.calls.Load())
	})

	t.Run("show with another query fetches", func(t *testing.T) {
		l := &MockLister{}
		c := New(l, "nb")
		c.Refresh(ctx)
		v := c.Show(ctx, domain.Query{Search: "x"})
		assert.Equal(t, "x", v.Query.Search)
		assert.Equal(t, int32(2), l.calls.Load())
	})
}

func TestNewCollator(t *testing.T) {
	tests := []struct {
		locale string
		want   int
	}{
		{"nb", 1},
		{"no", 1},
		{"nb-NO", 1},
		{"nn", 1},
		{"da", 1},
		{"en", -1},
		{"not a tag!", -1},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCollator(tt.locale).CompareString("Æble", "Zebra"))
		})
	}
}

func TestControllerAgainstAPI(t *testing.T) {
	srv := apitest.New(
		post("1", "First", t0),
		post("2", "Second", t0.Add(time.Hour)),
	)
	defer srv.Close()

	c := New(apiclient.New(srv.URL, time.Second), "nb")
	v := c.SetSearch(context.Background(), "second")

	assert.Equal(t, []string{"2"}, ids(v.Posts))
	assert.Equal(t, 1, srv.Count("GET", "/posts"))
	assert.Equal(t, 1, len(srv.Calls()), "only list fetches")
}
