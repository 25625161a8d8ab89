package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRouter_Health(t *testing.T) {
	c, _ := newTestContainer(t, &fakeEngine{})
	router := NewRouter(c)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestNewRouter_MethodNotAllowed(t *testing.T) {
	c, _ := newTestContainer(t, &fakeEngine{})
	router := NewRouter(c)

	for _, path := range []string{"/chat", "/api/chat", "/qa-query", "/api/qa-query", "/api/process-document", "/api/legal-assistant"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusMethodNotAllowed, rr.Code)
		}
	}
}

func TestNewRouter_APIPrefixServesPost(t *testing.T) {
	c, _ := newTestContainer(t, &fakeEngine{})
	router := NewRouter(c)

	rr := postJSON(t, router, "/api/qa-query", `{"query":"Who are the parties?","documentData":{"extractedText":"Petitioner: Ibrahim"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestNewRouter_UnmatchedRequestsGetRequestID(t *testing.T) {
	c, _ := newTestContainer(t, &fakeEngine{})
	router := NewRouter(c)

	for _, tc := range []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
		{http.MethodGet, "/api/chat", http.StatusMethodNotAllowed},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected status %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
		if rr.Header().Get(RequestIDHeader) == "" {
			t.Fatalf("%s %s: expected request id header", tc.method, tc.path)
		}
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	c, _ := newTestContainer(t, &fakeEngine{})
	router := NewRouter(c)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
