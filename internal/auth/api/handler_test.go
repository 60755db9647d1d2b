package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arbgate/internal/auth/session"
	"arbgate/internal/identity"
	"arbgate/internal/kv"
)

func newTestHandler(t *testing.T) (*Handler, *kv.MemoryStore) {
	t.Helper()

	mem := kv.NewMemoryStore()
	users := identity.NewStore(kv.NewNamespace(mem, "user"))

	hash, err := identity.HashPassword("password-1", identity.Argon2idParams{
		MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := users.Put(context.Background(), identity.User{
		Email: "ram@x.com", Name: "Ram", PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	svc := session.NewService(session.DefaultConfig(), nil, users, session.NewStores(mem))
	return NewHandler(nil, DefaultConfig(), svc), mem
}

func doJSON(t *testing.T, h *Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return m
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func loginCookie(t *testing.T, h *Handler) *http.Cookie {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"Ram","email":"ram@x.com","password":"password-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", rec.Code, rec.Body.String())
	}
	c := findCookie(t, rec, SessionCookieName)
	if c == nil || c.Value == "" {
		t.Fatalf("login did not set a session cookie")
	}
	return &http.Cookie{Name: c.Name, Value: c.Value}
}

func TestLoginEndpoint_Success(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"Ram","email":"Ram@X.com","password":"password-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" || body["name"] != "Ram" {
		t.Fatalf("unexpected body: %v", body)
	}

	c := findCookie(t, rec, SessionCookieName)
	if c == nil {
		t.Fatalf("missing session cookie")
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != 7*24*3600 {
		t.Fatalf("cookie Max-Age = %d, want %d", c.MaxAge, 7*24*3600)
	}
}

func TestLoginEndpoint_Validation(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"ram@x.com","password":"x"}`},
		{"blank name", `{"name":"  ","email":"ram@x.com","password":"x"}`},
		{"missing password", `{"name":"Ram","email":"ram@x.com"}`},
		{"no at sign", `{"name":"Ram","email":"ramx.com","password":"x"}`},
		{"at sign at edge", `{"name":"Ram","email":"@x.com","password":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/login", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != "Missing or invalid name, email, or password." {
				t.Fatalf("unexpected error text: %v", body["error"])
			}
		})
	}

	// Malformed JSON is also a 400, with its own message.
	rec := doJSON(t, h, http.MethodPost, "/api/login", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status = %d, want 400", rec.Code)
	}
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	unknown := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"X","email":"nobody@x.com","password":"password-1"}`)
	wrongPw := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"Ram","email":"ram@x.com","password":"nope"}`)

	for _, rec := range []*httptest.ResponseRecorder{unknown, wrongPw} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "Invalid email or password." {
			t.Fatalf("unexpected error text: %v", body["error"])
		}
		if findCookie(t, rec, SessionCookieName) != nil {
			t.Fatalf("failed login must not touch cookies")
		}
	}
}

func TestLoginEndpoint_ConflictAndForce(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	loginCookie(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"Ram","email":"ram@x.com","password":"password-1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["conflict"] != true || body["message"] == "" {
		t.Fatalf("unexpected conflict body: %v", body)
	}
	if findCookie(t, rec, SessionCookieName) != nil {
		t.Fatalf("conflict must not touch cookies")
	}

	forced := doJSON(t, h, http.MethodPost, "/api/login",
		`{"name":"Ram","email":"ram@x.com","password":"password-1","forceLogin":true}`)
	if forced.Code != http.StatusOK {
		t.Fatalf("force login: status = %d: %s", forced.Code, forced.Body.String())
	}
	if findCookie(t, forced, SessionCookieName) == nil {
		t.Fatalf("force login must set a fresh session cookie")
	}
}

func TestLogoutEndpoint_AlwaysSucceeds(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	// Without any cookie at all.
	rec := doJSON(t, h, http.MethodPost, "/api/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Logout successful" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	cleared := findCookie(t, rec, SessionCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("logout must clear the session cookie, got %+v", cleared)
	}

	// With a real session: same response, session actually dead.
	c := loginCookie(t, h)
	rec = doJSON(t, h, http.MethodPost, "/api/logout", "", c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	verify := doJSON(t, h, http.MethodGet, "/api/verify-session", "", c)
	if decodeBody(t, verify)["loggedIn"] != false {
		t.Fatalf("session must be invalid after logout")
	}
}

func TestVerifyEndpoint(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	// No cookie.
	rec := doJSON(t, h, http.MethodGet, "/api/verify-session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["loggedIn"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["email"]; ok {
		t.Fatalf("logged-out body must omit email")
	}

	// Stale cookie: logged out, and the cookie gets expired client-side.
	stale := doJSON(t, h, http.MethodGet, "/api/verify-session", "",
		&http.Cookie{Name: SessionCookieName, Value: "never-issued"})
	if decodeBody(t, stale)["loggedIn"] != false {
		t.Fatalf("stale token must not verify")
	}
	cleared := findCookie(t, stale, SessionCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("stale cookie must be cleared, got %+v", cleared)
	}

	// Live session.
	c := loginCookie(t, h)
	live := doJSON(t, h, http.MethodGet, "/api/verify-session", "", c)
	body = decodeBody(t, live)
	if body["loggedIn"] != true || body["email"] != "ram@x.com" || body["name"] != "Ram" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGenerateAccessTokenEndpoint(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	// No session cookie.
	rec := doJSON(t, h, http.MethodPost, "/api/generate-access-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "Not authenticated. No session found." {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// Stale session cookie: 401 and the cookie is cleared.
	stale := doJSON(t, h, http.MethodPost, "/api/generate-access-token", "",
		&http.Cookie{Name: SessionCookieName, Value: "never-issued"})
	if stale.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", stale.Code)
	}
	cleared := findCookie(t, stale, SessionCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("stale session cookie must be cleared, got %+v", cleared)
	}

	// Live session: 200, access cookie with a 300s lifetime.
	c := loginCookie(t, h)
	ok := doJSON(t, h, http.MethodPost, "/api/generate-access-token", "", c)
	if ok.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", ok.Code, ok.Body.String())
	}
	if decodeBody(t, ok)["status"] != "success" {
		t.Fatalf("unexpected body: %s", ok.Body.String())
	}
	ac := findCookie(t, ok, AccessCookieName)
	if ac == nil || ac.Value == "" {
		t.Fatalf("missing access cookie")
	}
	if ac.MaxAge != 300 || !ac.HttpOnly || !ac.Secure {
		t.Fatalf("access cookie attributes wrong: %+v", ac)
	}
	if ac.Value == c.Value {
		t.Fatalf("access token must differ from session token")
	}
}

func TestMethodDiscipline(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/login"},
		{http.MethodGet, "/api/logout"},
		{http.MethodPost, "/api/verify-session"},
		{http.MethodGet, "/api/generate-access-token"},
	}
	for _, tc := range cases {
		rec := doJSON(t, h, tc.method, tc.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}
