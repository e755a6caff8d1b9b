package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(baseURL string) *OpenWeatherProvider {
	return NewOpenWeatherProvider(&http.Client{Timeout: 5 * time.Second}, OpenWeatherConfig{
		BaseURL: baseURL,
		Path:    "/data/2.5/weather",
		APIKey:  "secret",
		City:    "Kansas",
	})
}

func TestOpenWeatherFetch(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Kansas" || q.Get("appid") != "secret" {
			t.Errorf("query = %v", q)
		}
		if q.Has("units") {
			t.Errorf("units must not be set, responses are expected in Kelvin")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Kansas"}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	body, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"name":"Kansas"}` {
		t.Errorf("body = %s", body)
	}
	if calls != 1 {
		t.Errorf("expected exactly one request, got %d", calls)
	}
}

func TestOpenWeatherFetchNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Fetch(context.Background())
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if herr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", herr.StatusCode)
	}
}

func TestOpenWeatherFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestProvider(url).Fetch(context.Background())
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if herr.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for transport failure", herr.StatusCode)
	}
}

func TestOpenWeatherPing(t *testing.T) {
	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	if err := p.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail on 503")
	}

	status = http.StatusOK
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}
}

func TestOpenWeatherMissingAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherConfig{BaseURL: "http://127.0.0.1", Path: "/x", City: "Kansas"})
	_, err := p.Fetch(context.Background())
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
}
