package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopfront-dev/shopfront/internal/auth"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthInfo(t *testing.T) {
	s, _ := newTestServer(t, unusedBackend)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/auth", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	require.Equal(t, "Auth API endpoint", body["message"])
	require.Equal(t, []any{"POST"}, body["availableMethods"])
}

func TestAuthenticateRoutesByType(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":"tok-123","user":{"id":1,"email":"ada@shop.test","role":"admin","name":"Ada"}}`)
	})
	s, _ := newTestServer(t, backend.URL)

	tests := []struct {
		body string
		path string
	}{
		{`{"type":"login","email":"ada@shop.test","password":"secret1"}`, "/login"},
		{`{"type":"register","email":"ada@shop.test","password":"secret1","name":"Ada"}`, "/register"},
		{`{"email":"ada@shop.test","password":"secret1"}`, "/register"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(s, postJSON("/api/auth", tt.body))
			require.Equal(t, http.StatusOK, w.Code)
			require.JSONEq(t, `{"token":"tok-123","user":{"id":1,"email":"ada@shop.test","role":"admin","name":"Ada"}}`, w.Body.String())

			upstream, forwarded := backend.Last()
			require.Equal(t, tt.path, upstream.URL.Path)
			require.JSONEq(t, tt.body, forwarded)
		})
	}
}

func TestAuthenticateSetsCookies(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":"tok-123","user":{"id":1,"role":"admin","name":"Ada L"}}`)
	})
	s, _ := newTestServer(t, backend.URL)

	w := serve(s, postJSON("/api/auth", `{"type":"login","email":"a@b.co","password":"secret1"}`))
	require.Equal(t, http.StatusOK, w.Code)

	token := responseCookie(w, "token")
	require.NotNil(t, token)
	require.Equal(t, "tok-123", token.Value)
	require.True(t, token.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, token.SameSite)
	require.Equal(t, 604800, token.MaxAge)
	require.Equal(t, "/", token.Path)
	require.False(t, token.Secure, "secure cookies are production only")

	user := responseCookie(w, "user")
	require.NotNil(t, user)
	require.False(t, user.HttpOnly)
	profile, err := auth.DecodeProfile(user.Value)
	require.NoError(t, err)
	require.Equal(t, "admin", profile.Role)
	require.Equal(t, "Ada L", profile.Name)
}

func TestAuthenticateWithoutTokenSetsNoCookies(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"check your inbox"}`)
	})
	s, _ := newTestServer(t, backend.URL)

	w := serve(s, postJSON("/api/auth", `{"type":"register","email":"a@b.co","password":"secret1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, responseCookie(w, "token"))
	require.Nil(t, responseCookie(w, "user"))
}

func TestAuthenticateFailure(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantErr  string
	}{
		{"backend error field", http.StatusUnauthorized, `{"error":"Invalid credentials"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"no error field", http.StatusConflict, `{"message":"exists"}`, http.StatusConflict, "Authentication failed"},
		{"not json", http.StatusBadGateway, `bad gateway`, http.StatusBadGateway, "Authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			s, _ := newTestServer(t, backend.URL)

			w := serve(s, postJSON("/api/auth", `{"type":"login","email":"a@b.co","password":"wrong"}`))
			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, tt.wantErr, decodeJSON(t, w)["error"])
			require.Nil(t, responseCookie(w, "token"))
		})
	}
}

func TestAuthenticateBadBody(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	s, _ := newTestServer(t, backend.URL)

	w := serve(s, postJSON("/api/auth", `{broken`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, backend.Calls())
}

func TestLogoutRevokesToken(t *testing.T) {
	s, registry := newTestServer(t, unusedBackend)

	token := makeToken(t, map[string]any{"userId": "u1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	w := serve(s, withTokenCookie(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Logged out", decodeJSON(t, w)["message"])
	for _, name := range []string{"token", "user"} {
		c := responseCookie(w, name)
		require.NotNil(t, c)
		require.Less(t, c.MaxAge, 0)
	}

	revoked, err := registry.IsRevoked(context.Background(), token)
	require.NoError(t, err)
	require.True(t, revoked)

	// The same token no longer opens protected pages
	w = serve(s, withTokenCookie(httptest.NewRequest(http.MethodGet, "/products", nil), token))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
}

func TestLogoutBearerHeader(t *testing.T) {
	s, registry := newTestServer(t, unusedBackend)

	token := makeToken(t, map[string]any{"userId": "u2"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code)

	revoked, err := registry.IsRevoked(context.Background(), token)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestLogoutWithoutToken(t *testing.T) {
	s, _ := newTestServer(t, unusedBackend)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, responseCookie(w, "token"))
}

func TestLogoutRevocationFailure(t *testing.T) {
	s := New(testConfig(unusedBackend), testLogger(), failingRegistry{}, "test")

	token := makeToken(t, map[string]any{"userId": "u1"})
	w := serve(s, withTokenCookie(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Failed to revoke session", decodeJSON(t, w)["error"])
	require.NotNil(t, responseCookie(w, "token"), "cookies are cleared even when revocation fails")
}

func TestCurrentSession(t *testing.T) {
	s, registry := newTestServer(t, unusedBackend)

	t.Run("anonymous", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"authenticated":false,"user":null,"isAdmin":false}`, w.Body.String())
	})

	t.Run("admin token", func(t *testing.T) {
		token := makeToken(t, map[string]any{"userId": "u1", "role": "admin", "email": "root@shop.test"})
		w := serve(s, withTokenCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), token))
		body := decodeJSON(t, w)
		require.Equal(t, true, body["authenticated"])
		require.Equal(t, true, body["isAdmin"])
	})

	t.Run("spoofed user cookie is ignored", func(t *testing.T) {
		token := makeToken(t, map[string]any{"userId": "u2", "role": "user"})
		req := withTokenCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), token)
		req.AddCookie(&http.Cookie{Name: "user", Value: "%7B%22role%22%3A%22admin%22%7D"})
		body := decodeJSON(t, serve(s, req))
		require.Equal(t, true, body["authenticated"])
		require.Equal(t, false, body["isAdmin"])
	})

	t.Run("revoked token", func(t *testing.T) {
		token := makeToken(t, map[string]any{"userId": "u3", "role": "admin"})
		require.NoError(t, registry.Revoke(context.Background(), token, "u3", time.Now().Add(time.Hour)))
		w := serve(s, withTokenCookie(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), token))
		require.Equal(t, false, decodeJSON(t, w)["authenticated"])
	})
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, unusedBackend)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	require.Equal(t, "online", body["status"])
	require.Equal(t, "test", body["version"])
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
