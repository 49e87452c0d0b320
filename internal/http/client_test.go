package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_GetString(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html><title>Hi</title></html>"))
	}))
	defer srv.Close()

	client := NewClient(time.Second, "TestAgent")
	body, err := client.GetString(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if body != "<html><title>Hi</title></html>" {
		t.Errorf("GetString() = %q", body)
	}
	if gotAgent != "TestAgent" {
		t.Errorf("User-Agent = %q, want TestAgent", gotAgent)
	}
}

func TestClient_GetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(time.Second, "").Get(context.Background(), srv.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(50*time.Millisecond, "").Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Get() should time out")
	}
}

func TestClient_PostJSON(t *testing.T) {
	var got map[string]string
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(time.Second, "").PostJSON(context.Background(), srv.URL, map[string]string{"content": "hello"})
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if got["content"] != "hello" {
		t.Errorf("payload = %v", got)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v1.2.0"}`))
	}))
	defer srv.Close()

	var out struct {
		TagName string `json:"tag_name"`
	}
	if err := NewClient(time.Second, "").GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.TagName != "v1.2.0" {
		t.Errorf("TagName = %q", out.TagName)
	}
}
