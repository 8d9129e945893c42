package icecast

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
)

func statsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestListenerCountSingleSource(t *testing.T) {
	server := statsServer(t, http.StatusOK, `{"icestats":{"source":{"listeners":3}}}`)

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 3 {
		t.Fatalf("expected 3 listeners, got %d", got)
	}
}

func TestListenerCountSumsSourceList(t *testing.T) {
	body := `{"icestats":{"source":[{"listeners":2},{"listeners":5},{}]}}`
	server := statsServer(t, http.StatusOK, body)

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 7 {
		t.Fatalf("expected 7 listeners, got %d", got)
	}
}

func TestListenerCountMissingListenersField(t *testing.T) {
	server := statsServer(t, http.StatusOK, `{"icestats":{"source":{}}}`)

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 0 {
		t.Fatalf("expected 0 listeners, got %d", got)
	}
}

func TestListenerCountMissingSource(t *testing.T) {
	server := statsServer(t, http.StatusOK, `{"icestats":{}}`)

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 0 {
		t.Fatalf("expected 0 listeners, got %d", got)
	}
}

func TestListenerCountMalformedBody(t *testing.T) {
	server := statsServer(t, http.StatusOK, `this is not json`)

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 0 {
		t.Fatalf("expected 0 listeners on malformed body, got %d", got)
	}
}

func TestListenerCountServerError(t *testing.T) {
	server := statsServer(t, http.StatusInternalServerError, "")

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 0 {
		t.Fatalf("expected 0 listeners on server error, got %d", got)
	}
}

func TestListenerCountUnreachableEndpoint(t *testing.T) {
	server := statsServer(t, http.StatusOK, "{}")
	server.Close()

	stats := NewStats(server.URL, log.New(io.Discard, "", 0))
	if got := stats.ListenerCount(context.Background()); got != 0 {
		t.Fatalf("expected 0 listeners when endpoint unreachable, got %d", got)
	}
}
