package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ragsense/ragsense/internal/core/domain"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	authCtx := &domain.AuthContext{Subject: "ops", Role: domain.RoleOperator}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)

	if got := GetAuthContext(ctx); got != authCtx {
		t.Errorf("expected stored auth context, got %+v", got)
	}
}

func TestGetAuthContext_EmptyContext(t *testing.T) {
	if got := GetAuthContext(context.Background()); got != nil {
		t.Errorf("expected nil auth context, got %+v", got)
	}
	//nolint:staticcheck // nil context is tolerated
	if got := GetAuthContext(nil); got != nil {
		t.Errorf("expected nil auth context, got %+v", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/sources", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rr.Code)
	}
	out := buf.String()
	for _, want := range []string{"component=http", "path=/api/sources", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %q, got %s", want, out)
		}
	}
}

func TestLoggingMiddleware_ServerErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/generate", nil))

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected error level, got %s", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewRecoveryMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://ui.local"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://ui.local")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("OPTIONS", "/api/search", nil)
	req.Header.Set("Origin", "http://anywhere")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if called {
		t.Error("preflight should not reach the handler")
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("expected POST to be allowed, got %q", got)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://ui.local"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header, got %q", got)
	}
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound || rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 recorded, got %d / %d", rw.statusCode, rr.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected generated id to be echoed, got %q / %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "trace-42" || rr.Header().Get("X-Request-ID") != "trace-42" {
		t.Errorf("expected client id to be kept, got %q", seen)
	}
}

func TestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestIDMiddleware(NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})))

	req := httptest.NewRequest("GET", "/api/version", nil)
	req.Header.Set("X-Request-ID", "trace-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	for _, want := range []string{"request_id=trace-7", "bytes=5", "status=200"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected log line to contain %q, got %s", want, buf.String())
		}
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Authenticate_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{})

	rr := httptest.NewRecorder()
	m.Authenticate(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return &domain.AuthContext{Subject: "ops", Role: domain.RoleOperator}, nil
		},
	})

	var got *domain.AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer valid")
	m.Authenticate(next).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Subject != "ops" {
		t.Errorf("expected auth context in request, got %+v", got)
	}
}

func TestAuthMiddleware_Authenticate_TokenExpired(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return nil, domain.ErrTokenExpired
		},
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer old")
	rr := httptest.NewRecorder()
	m.Authenticate(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "token expired") {
		t.Errorf("expected expiry message, got %s", rr.Body.String())
	}
}

func TestAuthMiddleware_Authenticate_NotConfigured(t *testing.T) {
	m := NewAuthMiddleware(nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer any")
	rr := httptest.NewRecorder()
	m.Authenticate(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestAuthMiddleware_RequireOperator(t *testing.T) {
	tests := []struct {
		name    string
		authCtx *domain.AuthContext
		status  int
	}{
		{"operator", &domain.AuthContext{Subject: "ops", Role: domain.RoleOperator}, http.StatusOK},
		{"reader", &domain.AuthContext{Subject: "ui", Role: domain.RoleReader}, http.StatusForbidden},
		{"no context", nil, http.StatusUnauthorized},
	}

	m := NewAuthMiddleware(&mockAuthService{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.authCtx != nil {
				req = req.WithContext(context.WithValue(req.Context(), authContextKey, tt.authCtx))
			}
			rr := httptest.NewRecorder()
			m.RequireOperator(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

func TestServer_AdminRoutesWithoutAuthService(t *testing.T) {
	server := NewServer(DefaultConfig(), Services{
		Catalog: &mockCatalogService{},
		Reindex: &mockReindexService{},
	})

	req := httptest.NewRequest("POST", "/api/admin/reindex", strings.NewReader(`{"collection":"jira"}`))
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestServer_RecoversHandlerPanics(t *testing.T) {
	ts := newTestServer()
	ts.search.searchFn = func(ctx context.Context, query domain.SearchQuery) (*domain.SearchOutcome, error) {
		panic("store exploded")
	}

	rr := ts.do("POST", "/api/search", `{"query":"x","sources":["jira"],"searchType":"Keyword"}`, "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}
