package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/itchan-dev/postsweb/internal/domain"
	internal_errors "github.com/itchan-dev/postsweb/internal/errors"
	"github.com/itchan-dev/postsweb/internal/logger"
)

const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

func postPath(id domain.PostID) string {
	return "/posts/" + url.PathEscape(id.String())
}

// Posts returns the whole collection, or an empty slice when the fetch fails.
func (c *APIClient) Posts(ctx context.Context) []domain.Post {
	posts, err := c.ListPosts(ctx)
	if err != nil {
		return []domain.Post{}
	}
	return posts
}

// ListPosts is Posts with the failure reported.
func (c *APIClient) ListPosts(ctx context.Context) ([]domain.Post, error) {
	resp, err := c.do(ctx, OpList, http.MethodGet, "/posts", nil)
	if err != nil {
		logger.FromContext(ctx).Error("fetching posts", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("failed to fetch posts: %d", resp.StatusCode)
		logger.FromContext(ctx).Error("fetching posts", "status", resp.StatusCode, "body", readBody(resp.Body))
		return nil, err
	}

	var posts []domain.Post
	if err := decode(resp.Body, &posts); err != nil {
		logger.FromContext(ctx).Error("decoding posts", "error", err)
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// GetPost fetches one post. found is false (with a nil error) on 404.
func (c *APIClient) GetPost(ctx context.Context, id domain.PostID) (post domain.Post, found bool, err error) {
	resp, err := c.do(ctx, OpGet, http.MethodGet, postPath(id), nil)
	if err != nil {
		return post, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return post, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return post, false, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("failed to fetch post %s: %d", id, resp.StatusCode),
			StatusCode: http.StatusBadGateway,
		}
	}
	if err := decode(resp.Body, &post); err != nil {
		return post, false, err
	}
	return post, true, nil
}

func (c *APIClient) CreatePost(ctx context.Context, data domain.CreatePostRequest) (domain.Post, error) {
	return c.mutate(ctx, OpCreate, http.MethodPost, "/posts", data, http.StatusOK, http.StatusCreated)
}

func (c *APIClient) UpdatePost(ctx context.Context, id domain.PostID, data domain.UpdatePostRequest) (domain.Post, error) {
	return c.mutate(ctx, OpUpdate, http.MethodPatch, postPath(id), data, http.StatusOK)
}

func (c *APIClient) DeletePost(ctx context.Context, id domain.PostID) error {
	resp, err := c.do(ctx, OpDelete, http.MethodDelete, postPath(id), nil)
	if err != nil {
		return &internal_errors.RequestError{Op: OpDelete, Err: err}
	}
	defer resp.Body.Close()

	if !statusIn(resp.StatusCode, http.StatusOK, http.StatusNoContent) {
		return &internal_errors.RequestError{Op: OpDelete, StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return nil
}

func (c *APIClient) mutate(ctx context.Context, op, method, path string, data any, accepted ...int) (domain.Post, error) {
	var post domain.Post
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return post, &internal_errors.RequestError{Op: op, Err: fmt.Errorf("failed to marshal post data: %w", err)}
	}

	resp, err := c.do(ctx, op, method, path, bytes.NewReader(jsonBody))
	if err != nil {
		return post, &internal_errors.RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if !statusIn(resp.StatusCode, accepted...) {
		return post, &internal_errors.RequestError{Op: op, StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	if err := decode(resp.Body, &post); err != nil {
		return post, &internal_errors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return post, nil
}

// Ping checks that the posts API answers the list endpoint.
func (c *APIClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, OpList, http.MethodGet, "/posts", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posts API returned status %d", resp.StatusCode)
	}
	return nil
}
