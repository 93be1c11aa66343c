package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(url string) *apiClient {
	return &apiClient{baseURL: url, token: "tok", client: &http.Client{Timeout: 5 * time.Second}}
}

func TestAPIClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	var out map[string]string
	if err := testClient(srv.URL).get("/health", &out); err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if out["status"] != "ok" {
		t.Errorf("decoded = %v", out)
	}
}

func TestAPIClient_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "shot is required"})
	}))
	defer srv.Close()

	err := testClient(srv.URL).post("/jobs", map[string]string{}, nil)
	if err == nil || !strings.Contains(err.Error(), "shot is required") {
		t.Errorf("error = %v, want API error message", err)
	}
}

func TestRenderPlain(t *testing.T) {
	got := renderPlain(
		[]string{"ID", "SHOT"},
		[][]string{{"a1", "sh010"}, {"b2", "sh020"}},
	)
	want := "ID\tSHOT\na1\tsh010\nb2\tsh020"
	if got != want {
		t.Errorf("renderPlain = %q, want %q", got, want)
	}
}
