package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"

	"glp/internal/application/orchestrators"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTable map[string][]string

func (f fakeTable) Has(role, perm string) bool {
	for _, p := range f[role] {
		if p == perm {
			return true
		}
	}
	return false
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func testFlash() *FlashStore {
	return NewFlashStore([]byte("0123456789abcdef0123456789abcdef"), false)
}

// TestSessionStore_Expiry verifies sessions vanish after their lifetime.
func TestSessionStore_Expiry(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, err := ss.Create("u1", "amara", "participant")
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := ss.Get(token); !ok || s.UserID != "u1" || s.Token != token {
		t.Fatalf("fresh session = %+v, %v", s, ok)
	}
	now = now.Add(61 * time.Minute)
	if _, ok := ss.Get(token); ok {
		t.Error("expired session must not be returned")
	}
}

// TestSessionStore_AnonymousSubmission verifies the mark is stored per session.
func TestSessionStore_AnonymousSubmission(t *testing.T) {
	ss := NewSessionStore(0)
	token, _ := ss.Create("u1", "amara", "participant")
	if !ss.MarkAnonymousSubmission(token, "s1") || !ss.MarkAnonymousSubmission(token, "s1") {
		t.Fatal("mark failed")
	}
	s, _ := ss.Get(token)
	if !s.SubmittedAnonymously("s1") || len(s.AnonymousSurveys) != 1 {
		t.Errorf("anonymous surveys = %v", s.AnonymousSurveys)
	}
	if ss.MarkAnonymousSubmission("missing", "s1") {
		t.Error("unknown token must not be marked")
	}
}

// TestRequireLogin verifies anonymous requests are redirected with a flash.
func TestRequireLogin(t *testing.T) {
	h := RequireLogin(testFlash())(okHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("got %d to %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(rr.Result().Cookies()) == 0 || rr.Result().Cookies()[0].Name != FlashCookieName {
		t.Error("expected a flash cookie")
	}
}

// TestRequirePermission verifies the role gate.
func TestRequirePermission(t *testing.T) {
	table := fakeTable{"admin": {"user_management"}, "participant": {"view_projects"}}
	flash := testFlash()
	h := RequirePermission(table, flash, "user_management")(okHandler())

	tests := []struct {
		role     string
		wantCode int
		wantLoc  string
	}{
		{"admin", http.StatusOK, ""},
		{"participant", http.StatusSeeOther, "/dashboard"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req = req.WithContext(WithSession(req.Context(), Session{UserID: "u", Role: tt.role}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tt.wantCode || rr.Header().Get("Location") != tt.wantLoc {
			t.Errorf("%s: got %d to %q", tt.role, rr.Code, rr.Header().Get("Location"))
		}
	}

	// Any of several permissions is enough.
	anyOf := RequirePermission(table, flash, "survey_management", "view_projects")(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/surveys/1/results", nil)
	req = req.WithContext(WithSession(req.Context(), Session{Role: "participant"}))
	rr := httptest.NewRecorder()
	anyOf.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("any-of gate = %d", rr.Code)
	}
}

// TestFlashStore_RoundTrip verifies a flash survives one hop and rejects tampering.
func TestFlashStore_RoundTrip(t *testing.T) {
	flash := testFlash()
	rr := httptest.NewRecorder()
	flash.Set(rr, FlashSuccess, "Project created successfully")
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/projects/1", nil)
	req.AddCookie(cookie)
	got, ok := flash.Pop(httptest.NewRecorder(), req)
	if !ok || got.Kind != FlashSuccess || got.Message != "Project created successfully" {
		t.Fatalf("got %+v, %v", got, ok)
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: FlashCookieName, Value: cookie.Value + "x"})
	if _, ok := flash.Pop(httptest.NewRecorder(), tampered); ok {
		t.Error("tampered flash must be rejected")
	}
}

// TestRateLimiter verifies the bucket empties and the cleanup goroutine stops.
func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Close()
	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request must be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients are unaffected")
	}
}

// TestRateLimiter_Refill verifies tokens come back in proportion to elapsed time and never exceed the burst.
func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(4, time.Second)
	defer rl.Close()
	clock := time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d of the burst was limited", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("bucket should be empty")
	}
	clock = clock.Add(500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") || rl.Allow("10.0.0.1") {
		t.Error("half a second should restore exactly two tokens")
	}
	clock = clock.Add(time.Hour)
	for i := 0; i < 4; i++ {
		rl.Allow("10.0.0.1")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("refill must be capped at the burst size")
	}
}

// TestClientIP verifies the port is stripped before the address reaches the context.
func TestClientIP(t *testing.T) {
	var got string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = orchestrators.ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "192.0.2.7" {
		t.Errorf("client ip = %q", got)
	}
}

// TestSecurityHeaders verifies the frame and sniffing headers.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Frame-Options") != "DENY" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("headers = %v", rr.Header())
	}
}
