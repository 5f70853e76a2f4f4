package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
)

// FlashCookieName names the signed one-shot message cookie.
const FlashCookieName = "glp_flash"

// Flash kinds, used as CSS classes.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// FlashStore reads and writes flash messages in a signed cookie.
type FlashStore struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewFlashStore creates a flash store signing cookies with hashKey.
// PRE: hashKey is at least 32 bytes
func NewFlashStore(hashKey []byte, secure bool) *FlashStore {
	return &FlashStore{codec: securecookie.New(hashKey, nil), secure: secure}
}

// Set stores a flash message for the next page.
// POST: A later Set on the same response replaces the message
func (f *FlashStore) Set(w http.ResponseWriter, kind, message string) {
	value, err := f.codec.Encode(FlashCookieName, Flash{Kind: kind, Message: message})
	if err != nil {
		slog.Error("flash_encode_failed", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending flash message and clears it.
// POST: Tampered or missing cookies yield false
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		MaxAge:   -1,
	})
	var fl Flash
	if err := f.codec.Decode(FlashCookieName, cookie.Value, &fl); err != nil {
		return Flash{}, false
	}
	return fl, true
}
