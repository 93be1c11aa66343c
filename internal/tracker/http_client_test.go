package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFindPublishedFiles_QueryAndOrder(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/published_files" {
			t.Errorf("path = %q, want /api/published_files", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}

		q := r.URL.Query()
		gotQuery = map[string]string{
			"project": q.Get("project"),
			"shot":    q.Get("shot"),
			"task":    q.Get("task"),
			"type":    q.Get("type"),
			"order":   q.Get("order"),
		}

		json.NewEncoder(w).Encode(map[string]any{
			"published_files": []PublishedFile{
				{ID: 9, Code: "sh010_grade.cube", Type: TypeCubeFile, LocalPath: "/luts/sh010_v3.cube", VersionNumber: 3},
				{ID: 4, Code: "sh010_grade.cube", Type: TypeCubeFile, LocalPath: "/luts/sh010_v1.cube", VersionNumber: 1},
			},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	files, err := client.FindPublishedFiles(context.Background(), PublishedFileQuery{
		Shot: "sh010",
		Task: "comp",
		Type: TypeCubeFile,
	})
	if err != nil {
		t.Fatalf("FindPublishedFiles() error = %v", err)
	}

	if gotQuery["project"] != "Orbital" || gotQuery["shot"] != "sh010" || gotQuery["task"] != "comp" {
		t.Errorf("query params = %v", gotQuery)
	}
	if gotQuery["order"] != "version_number.desc" {
		t.Errorf("order = %q, want version_number.desc", gotQuery["order"])
	}

	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].VersionNumber != 3 {
		t.Errorf("first result version = %d, want highest first", files[0].VersionNumber)
	}
}

func TestFindPublishedFiles_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	_, err := client.FindPublishedFiles(context.Background(), PublishedFileQuery{Shot: "sh010"})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if !reqErr.IsRetryable() {
		t.Error("HTTP 500 should be retryable")
	}
}

func TestGetShot_NotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	shot, err := client.GetShot(context.Background(), "sh999")
	if err != nil {
		t.Fatalf("GetShot() error = %v", err)
	}
	if shot != nil {
		t.Errorf("shot = %+v, want nil for 404", shot)
	}
}

func TestGetShot_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Shot{Code: "sh010", Description: "hero pass", ClientVersion: "12"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	shot, err := client.GetShot(context.Background(), "sh010")
	if err != nil {
		t.Fatalf("GetShot() error = %v", err)
	}
	if shot == nil || shot.ClientVersion != "12" {
		t.Errorf("shot = %+v, want client_version 12", shot)
	}
}

func TestCreateVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/versions" {
			t.Errorf("%s %s, want POST /api/versions", r.Method, r.URL.Path)
		}

		var payload NewVersion
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Project != "Orbital" {
			t.Errorf("project = %q, want default filled in", payload.Project)
		}
		if payload.FirstFrame != 1001 || payload.LastFrame != 1100 {
			t.Errorf("frames = %d-%d, want 1001-1100", payload.FirstFrame, payload.LastFrame)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Version{ID: "v-77", Code: payload.Code})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	version, err := client.CreateVersion(context.Background(), NewVersion{
		Shot:       "sh010",
		Code:       "sh010_comp_v003",
		FirstFrame: 1001,
		LastFrame:  1100,
	})
	if err != nil {
		t.Fatalf("CreateVersion() error = %v", err)
	}
	if version.ID != "v-77" {
		t.Errorf("version ID = %q, want v-77", version.ID)
	}
}

func TestUploadMovie(t *testing.T) {
	movie := filepath.Join(t.TempDir(), "sh010.mov")
	if err := os.WriteFile(movie, []byte("not a real movie"), 0o644); err != nil {
		t.Fatalf("write movie: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/versions/v-77/movie" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("movie")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "sh010.mov" {
			t.Errorf("filename = %q, want sh010.mov", header.Filename)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret", "Orbital", testLogger())

	if err := client.UploadMovie(context.Background(), "v-77", movie); err != nil {
		t.Fatalf("UploadMovie() error = %v", err)
	}
}

func TestUploadMovie_MissingFile(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:0", "secret", "Orbital", testLogger())
	if err := client.UploadMovie(context.Background(), "v-1", "/no/such/file.mov"); err == nil {
		t.Fatal("expected error for missing movie file")
	}
}
