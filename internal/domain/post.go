package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PostID is the identifier assigned by the posts API. The API emits numbers;
// strings are accepted too so the client does not care.
type PostID string

func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PostID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	*id = PostID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as numbers and anything else,
// including "007" and "+5", as a string.
func (id PostID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id PostID) String() string { return string(id) }

type Post struct {
	ID        PostID      `json:"id"`
	Title     PostTitle   `json:"title"`
	Content   PostContent `json:"content"`
	Author    PostAuthor  `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Edited reports whether the remote bumped UpdatedAt past creation.
func (p Post) Edited() bool {
	return p.UpdatedAt.After(p.CreatedAt)
}

// to iterate thru layers: form -> apiclient -> posts API

type CreatePostRequest struct {
	Title   PostTitle   `json:"title"`
	Content PostContent `json:"content"`
	Author  PostAuthor  `json:"author"`
}

// UpdatePostRequest carries only the fields that changed.
type UpdatePostRequest struct {
	Title   *PostTitle   `json:"title,omitempty"`
	Content *PostContent `json:"content,omitempty"`
	Author  *PostAuthor  `json:"author,omitempty"`
}

func (r UpdatePostRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Author == nil
}
