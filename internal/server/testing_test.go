package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/revocations"
)

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			Env:         "test",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Backend: config.BackendConfig{
			URL:     backendURL,
			Timeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			ProtectedPrefixes: []string{"/products", "/dashboard"},
			LoginPath:         "/auth/login",
			MaxAge:            7 * 24 * time.Hour,
		},
		Store:   config.StoreConfig{Driver: "memory"},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// newTestServer wires a gateway against backendURL with an in-memory revocation registry
func newTestServer(t *testing.T, backendURL string) (*Server, *revocations.MemoryRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := revocations.NewMemory()
	return New(testConfig(backendURL), testLogger(), registry, "test"), registry
}

// makeToken returns an unsigned header.payload.signature token
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(claims)
	require.NoError(t, err)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(raw) + ".sig"
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func withTokenCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	return req
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// backendStub records upstream calls and answers with a fixed handler
type backendStub struct {
	*httptest.Server

	mu       sync.Mutex
	calls    int
	lastReq  *http.Request
	lastBody string
}

func (b *backendStub) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *backendStub) Last() (*http.Request, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReq, b.lastBody
}

func newBackend(t *testing.T, handler http.HandlerFunc) *backendStub {
	t.Helper()
	b := &backendStub{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls++
		b.lastReq = r.Clone(r.Context())
		b.lastBody = string(data)
		b.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(data))
		handler(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
