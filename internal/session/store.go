package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/form"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/metrics"
	"github.com/itchan-dev/postsweb/internal/notify"
)

const CookieName = "postsweb_session"

type Options struct {
	API           API
	Schema        form.Validator
	Locale        string
	Notifications notify.Options
	// OnPresent observes every notification presented in any session.
	OnPresent func(domain.SessionId, domain.Notification)
}

// Store keeps sessions in memory. A session expires after ttl without requests.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.SessionId]*Session
	opts     Options
	ttl      time.Duration
	tokens   *Tokens
	secure   bool
}

func NewStore(opts Options, tokens *Tokens, ttl time.Duration, secureCookies bool) *Store {
	return &Store{
		sessions: make(map[domain.SessionId]*Session),
		opts:     opts,
		ttl:      ttl,
		tokens:   tokens,
		secure:   secureCookies,
	}
}

// Get returns a live session and extends its lifetime.
func (st *Store) Get(id domain.SessionId) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		st.resetTimer(s)
	}
	return s, ok
}

// Open starts a new session.
func (st *Store) Open() *Session {
	s := newSession(uuid.NewString(), st.opts)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.resetTimer(s)
	metrics.SessionOpened()
	return s
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) resetTimer(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(st.ttl, func() {
		st.expire(s.ID)
	})
}

func (st *Store) expire(id domain.SessionId) {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		metrics.SessionExpired()
		logger.Log.Debug("session expired", "session_id", id)
	}
}

// Stop cleans up all timers
func (st *Store) Stop() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, s := range st.sessions {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}
}

// Middleware resolves the session from the signed cookie, starting a new one
// when the cookie is missing, invalid or points to an expired session.
func (st *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s *Session
		if cookie, err := r.Cookie(CookieName); err == nil {
			if id, err := st.tokens.Parse(cookie.Value); err == nil {
				s, _ = st.Get(id)
			} else {
				logger.FromContext(r.Context()).Debug("rejecting session cookie", "error", err)
			}
		}

		if s == nil {
			s = st.Open()
			token, err := st.tokens.Sign(s.ID)
			if err != nil {
				logger.FromContext(r.Context()).Error("failed to sign session", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(st.ttl.Seconds()),
				HttpOnly: true,
				Secure:   st.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
