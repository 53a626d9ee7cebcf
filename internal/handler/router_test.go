package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	personas := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatService.NewService(store.NewMemoryStore(), personas, nil,
		chatService.Config{GeneratorTimeout: time.Second}, logger)
	return NewRouter(personas, chatSvc, logger, []string{"*"})
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["generator"] != false {
		t.Fatalf("expected generator=false without a provider, got %v", body["generator"])
	}
}

func TestRouterMountsAPI(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/personas", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for personas, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatal("expected CORS header on API responses")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader([]byte(`{"sessionId":"abc","personaId":3}`))))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for session create, got %d", resp.Code)
	}

	for _, path := range []string{"/api/sessions/abc", "/api/sessions/abc/messages"} {
		resp = httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.Code)
		}
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/missing/stream?message=hi", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown stream session, got %d", resp.Code)
	}
}

func TestPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.Code)
	}
}
