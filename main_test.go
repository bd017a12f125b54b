package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/editor"
	"github.com/debemdeboas/archive-editor/internal/repository"
	"github.com/debemdeboas/archive-editor/internal/sse"
)

func newTestHandler() http.Handler {
	repo := repository.NewMemoryDraftRepository()
	clients := sse.NewSSEClients()
	cfg := config.EditorConfig{Placeholder: "Start writing...", MinWidth: 50, DefaultImageWidth: 300, FloatMargin: "16px"}
	return newServer(editor.NewSessionManager(repo, clients, cfg), repo, clients)
}

func TestRobots(t *testing.T) {
	req := httptest.NewRequest("GET", "/robots.txt", nil)
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 OK, got %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "Disallow: /") {
		t.Errorf("Expected robots rules, got %s", body)
	}
	if res.Header.Get("X-Frame-Options") != "" {
		t.Error("Expected robots.txt to skip the secure headers")
	}
}

func TestSecureAndCacheHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/drafts", strings.NewReader(url.Values{"content": {"<p>x</p>"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", res.StatusCode)
	}

	for header, want := range map[string]string{
		"X-Frame-Options":        "deny",
		"X-Content-Type-Options": "nosniff",
		config.HCacheControl:     "no-cache",
		"Vary":                   "Cookie",
	} {
		if got := res.Header.Get(header); got != want {
			t.Errorf("Expected %s: %s, got %q", header, want, got)
		}
	}
}

func TestMethodRouting(t *testing.T) {
	req := httptest.NewRequest("PUT", "/drafts", nil)
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
