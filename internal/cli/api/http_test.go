package api

import (
	"Marketplace/internal/apperr"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Post_SendsBearer_And_ParsesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization header: %q", got)
		}
		if r.URL.Path != "/items" {
			t.Errorf("path: %s", r.URL.Path)
		}
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("bad json: %v", err)
		}
		if m["x"] != float64(1) { // JSON number → float64
			t.Errorf("unexpected payload: %#v", m)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	c := NewClient(ts.URL+"/", "tok123")
	if err := c.Post(context.Background(), "/items", map[string]any{"x": 1}, &out); err != nil {
		t.Fatalf("Post err: %v", err)
	}
	if !out.OK {
		t.Fatalf("body not decoded")
	}
}

func TestClient_Get_NoTokenNoHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	var out []any
	if err := NewClient(ts.URL, "").Get(context.Background(), "/items", &out); err != nil {
		t.Fatalf("Get err: %v", err)
	}
}

func TestClient_ErrorBodyDecoded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"kind":"invalid_image","message":"image 2: bad","field":"images[1]","retryable":false}`))
	}))
	defer ts.Close()

	err := NewClient(ts.URL, "t").Get(context.Background(), "/x", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Kind() != apperr.KindInvalidImage {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if apiErr.Body.Field != "images[1]" {
		t.Fatalf("field: %q", apiErr.Body.Field)
	}
	if msg := apiErr.Error(); msg != "server status 422: invalid_image: image 2: bad (field images[1])" {
		t.Fatalf("message: %s", msg)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	err := NewClient(ts.URL, "").Get(context.Background(), "/x", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Raw != "boom" {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestClient_BadJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer ts.Close()

	var out map[string]any
	if err := NewClient(ts.URL, "").Get(context.Background(), "/x", &out); err == nil {
		t.Fatalf("expected decode error")
	}
}
