package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/postsweb/internal/apiclient/apitest"
	"github.com/itchan-dev/postsweb/internal/domain"
	internal_errors "github.com/itchan-dev/postsweb/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() []domain.Post {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Post{
		{ID: "1", Title: "Hello", Content: "first", Author: "ann", CreatedAt: t0, UpdatedAt: t0},
		{ID: "2", Title: "World", Content: "second", Author: "bob", CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour)},
	}
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns collection", func(t *testing.T) {
		api := apitest.New(seed()...)
		defer api.Close()
		c := New(api.URL, time.Second)

		posts, err := c.ListPosts(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
		assert.Equal(t, "Hello", posts[0].Title)
	})

	t.Run("failure degrades to empty slice", func(t *testing.T) {
		api := apitest.New(seed()...)
		defer api.Close()
		api.FailStatus["GET /posts"] = http.StatusInternalServerError
		c := New(api.URL, time.Second)

		_, err := c.ListPosts(ctx)
		assert.Error(t, err)

		posts := c.Posts(ctx)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("unreachable API degrades to empty slice", func(t *testing.T) {
		c := New("http://127.0.0.1:1", 200*time.Millisecond)
		assert.Empty(t, c.Posts(ctx))
	})

	t.Run("requests disable caching", func(t *testing.T) {
		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, time.Second).ListPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, "no-cache, no-store", got.Get("Cache-Control"))
		assert.Equal(t, "no-cache", got.Get("Pragma"))
	})
}

func TestGetPost(t *testing.T) {
	ctx := context.Background()
	api := apitest.New(seed()...)
	defer api.Close()
	c := New(api.URL, time.Second)

	t.Run("found", func(t *testing.T) {
		post, found, err := c.GetPost(ctx, "2")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "World", post.Title)
	})

	t.Run("404 is absent, not an error", func(t *testing.T) {
		_, found, err := c.GetPost(ctx, "99")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("other failures propagate", func(t *testing.T) {
		api.FailStatus["GET /posts/1"] = http.StatusInternalServerError
		defer delete(api.FailStatus, "GET /posts/1")

		_, found, err := c.GetPost(ctx, "1")
		assert.Error(t, err)
		assert.False(t, found)
	})
}

func TestMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("create sends all fields", func(t *testing.T) {
		api := apitest.New()
		defer api.Close()
		c := New(api.URL, time.Second)

		post, err := c.CreatePost(ctx, domain.CreatePostRequest{Title: "T", Content: "C", Author: "A"})
		require.NoError(t, err)
		assert.Equal(t, domain.PostID("1"), post.ID)

		calls := api.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPost, calls[0].Method)
		assert.Equal(t, map[string]any{"title": "T", "content": "C", "author": "A"}, calls[0].Body)
	})

	t.Run("update sends only the subset", func(t *testing.T) {
		api := apitest.New(seed()...)
		defer api.Close()
		c := New(api.URL, time.Second)

		title := "Hello again"
		post, err := c.UpdatePost(ctx, "1", domain.UpdatePostRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Hello again", post.Title)
		assert.Equal(t, "first", post.Content)

		calls := api.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPatch, calls[0].Method)
		assert.Equal(t, "/posts/1", calls[0].Path)
		assert.Equal(t, map[string]any{"title": "Hello again"}, calls[0].Body)
	})

	t.Run("delete", func(t *testing.T) {
		api := apitest.New(seed()...)
		defer api.Close()
		c := New(api.URL, time.Second)

		require.NoError(t, c.DeletePost(ctx, "1"))
		assert.Equal(t, 1, api.Count(http.MethodDelete, "/posts/1"))
		assert.Len(t, api.Posts(), 1)
	})

	t.Run("delete accepts 204", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()
		assert.NoError(t, New(srv.URL, time.Second).DeletePost(ctx, "5"))
	})

	t.Run("non-2xx is a RequestError", func(t *testing.T) {
		api := apitest.New(seed()...)
		defer api.Close()
		api.FailStatus["POST /posts"] = http.StatusBadRequest
		api.FailStatus["DELETE /posts/2"] = http.StatusInternalServerError
		c := New(api.URL, time.Second)

		_, err := c.CreatePost(ctx, domain.CreatePostRequest{Title: "T"})
		var reqErr *internal_errors.RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, OpCreate, reqErr.Op)
		assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)

		err = c.DeletePost(ctx, "2")
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
		assert.Len(t, api.Posts(), 2)
	})

	t.Run("transport failure is a RequestError", func(t *testing.T) {
		c := New("http://127.0.0.1:1", 200*time.Millisecond)
		err := c.DeletePost(ctx, "1")
		var reqErr *internal_errors.RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Zero(t, reqErr.StatusCode)
	})
}

func TestPing(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	assert.NoError(t, New(api.URL, time.Second).Ping(context.Background()))

	api.FailStatus["GET /posts"] = http.StatusServiceUnavailable
	assert.Error(t, New(api.URL, time.Second).Ping(context.Background()))
}
