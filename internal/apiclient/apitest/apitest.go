// Package apitest runs an in-memory posts API on an httptest server and records
// every request it receives.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itchan-dev/postsweb/internal/domain"
)

// Call is one request seen by the fake API.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
}

type Server struct {
	*httptest.Server

	mu     sync.Mutex
	posts  []domain.Post
	nextID int
	calls  []Call
	now    func() time.Time

	// FailStatus, when set for "METHOD /path" keys ("POST /posts",
	// "DELETE /posts/1", "GET /posts"), makes the matching request fail.
	FailStatus map[string]int
	// Gate, when non-nil, blocks mutating requests until it is closed or
	// receives a value.
	Gate chan struct{}
}

func New(seed ...domain.Post) *Server {
	s := &Server{
		FailStatus: map[string]int{},
		now:        time.Now,
		nextID:     1,
	}
	for _, p := range seed {
		s.posts = append(s.posts, p)
		if n, err := strconv.Atoi(p.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Post(nil), s.posts...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&call.Body)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	status, fail := s.FailStatus[r.Method+" "+r.URL.Path]
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil && r.Method != http.MethodGet {
		<-gate
	}
	if fail {
		http.Error(w, "forced failure", status)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/posts/")
	switch {
	case r.URL.Path == "/posts" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Posts())
	case r.URL.Path == "/posts" && r.Method == http.MethodPost:
		s.create(w, call.Body)
	case strings.HasPrefix(r.URL.Path, "/posts/") && r.Method == http.MethodGet:
		if p, ok := s.find(id); ok {
			writeJSON(w, http.StatusOK, p)
			return
		}
		http.NotFound(w, r)
	case strings.HasPrefix(r.URL.Path, "/posts/") && r.Method == http.MethodPatch:
		s.update(w, id, call.Body)
	case strings.HasPrefix(r.URL.Path, "/posts/") && r.Method == http.MethodDelete:
		s.delete(w, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) find(id string) (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID.String() == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func (s *Server) create(w http.ResponseWriter, body map[string]any) {
	s.mu.Lock()
	now := s.now()
	p := domain.Post{
		ID:        domain.PostID(strconv.Itoa(s.nextID)),
		Title:     str(body["title"]),
		Content:   str(body["content"]),
		Author:    str(body["author"]),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.posts = append(s.posts, p)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, id string, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID.String() != id {
			continue
		}
		if v, ok := body["title"]; ok {
			s.posts[i].Title = str(v)
		}
		if v, ok := body["content"]; ok {
			s.posts[i].Content = str(v)
		}
		if v, ok := body["author"]; ok {
			s.posts[i].Author = str(v)
		}
		s.posts[i].UpdatedAt = s.now()
		writeJSON(w, http.StatusOK, s.posts[i])
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) delete(w http.ResponseWriter, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID.String() == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
