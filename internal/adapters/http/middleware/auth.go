package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

type sessionKey struct{}

// SessionCookieName names the cookie carrying the opaque session token.
const SessionCookieName = "glp_session"

// DefaultSessionLifetime applies when NewSessionStore is given a non-positive lifetime.
const DefaultSessionLifetime = 24 * time.Hour

// Session is the server-side state behind a session cookie.
type Session struct {
	Token     string
	UserID    string
	Username  string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time

	// AnonymousSurveys lists anonymous surveys submitted during this session.
	// Display only: anonymous responses carry no user and cannot be checked in the database.
	AnonymousSurveys []string
}

// SubmittedAnonymously reports whether surveyID was submitted anonymously in this session.
func (s Session) SubmittedAnonymously(surveyID string) bool {
	return slices.Contains(s.AnonymousSurveys, surveyID)
}

// SessionStore maps opaque tokens to sessions. Sessions live in memory, so a
// restart logs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	byToken  map[string]Session
	lifetime time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store whose sessions last lifetime.
func NewSessionStore(lifetime time.Duration) *SessionStore {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionStore{
		byToken:  make(map[string]Session),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns how long a session stays valid after login.
func (ss *SessionStore) Lifetime() time.Duration {
	return ss.lifetime
}

// Create starts a session for the user.
// PRE: userID, username, role are non-empty
// POST: Returns a fresh URL-safe token that Get resolves until the lifetime passes
func (ss *SessionStore) Create(userID, username, role string) (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("session token: random source failed")
	}
	token := base64.RawURLEncoding.EncodeToString(key)
	now := ss.now()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.byToken[token] = Session{
		Token:     token,
		UserID:    userID,
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(ss.lifetime),
	}
	return token, nil
}

// Get resolves a token.
// POST: Expired sessions are dropped and reported as missing
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.byToken[token]
	if ok && ss.now().After(sess.ExpiresAt) {
		delete(ss.byToken, token)
		return Session{}, false
	}
	return sess, ok
}

// Delete ends the session; unknown tokens are ignored.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	delete(ss.byToken, token)
	ss.mu.Unlock()
}

// MarkAnonymousSubmission records an anonymous survey submission against the session.
// POST: Returns false when the session no longer exists
func (ss *SessionStore) MarkAnonymousSubmission(token, surveyID string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.byToken[token]
	if !ok {
		return false
	}
	if !sess.SubmittedAnonymously(surveyID) {
		sess.AnonymousSurveys = append(slices.Clone(sess.AnonymousSurveys), surveyID)
		ss.byToken[token] = sess
	}
	return true
}

// Auth attaches the cookie's session to the request context when it is still valid.
// Anonymous requests pass through; RequireLogin and RequirePermission do the gating.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				if sess, ok := sessions.Get(c.Value); ok {
					r = r.WithContext(WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Login and permission redirect messages.
const (
	MsgLoginRequired    = "Please log in to continue"
	MsgPermissionDenied = "You do not have permission to access that page"
)

// deny flashes msg and sends the browser to target.
func deny(w http.ResponseWriter, r *http.Request, flash *FlashStore, msg, target string) {
	flash.Set(w, FlashError, msg)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RequireLogin sends anonymous requests to /login.
func RequireLogin(flash *FlashStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFrom(r.Context()); !ok {
				slog.Warn("auth_denied", "event", "login_required", "path", r.URL.Path)
				deny(w, r, flash, MsgLoginRequired, "/login")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PermissionChecker answers role → permission lookups.
type PermissionChecker interface {
	Has(role, perm string) bool
}

// RequirePermission lets a request through when the session's role holds any of
// perms. Others go to /dashboard, anonymous requests to /login.
func RequirePermission(table PermissionChecker, flash *FlashStore, perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFrom(r.Context())
			if !ok {
				deny(w, r, flash, MsgLoginRequired, "/login")
				return
			}
			if slices.ContainsFunc(perms, func(p string) bool { return table.Has(sess.Role, p) }) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Warn("auth_denied", "event", "permission_denied", "path", r.URL.Path,
				"user_id", sess.UserID, "role", sess.Role, "required", perms)
			deny(w, r, flash, MsgPermissionDenied, "/dashboard")
		})
	}
}

// SessionFrom returns the session Auth attached to ctx.
func SessionFrom(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// IssueSessionCookie hands the browser its session token.
func IssueSessionCookie(w http.ResponseWriter, token string, lifetime time.Duration, secure bool) {
	http.SetCookie(w, sessionCookie(token, int(lifetime/time.Second), secure))
}

// ExpireSessionCookie tells the browser to drop the session token.
func ExpireSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie("", -1, secure))
}
