package recognizer

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/henrikbla/vinylstreamer-shazam/internal/models"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func recognizerServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRecognizeFullResponse(t *testing.T) {
	body := `{
		"track": {
			"title": "Echoes",
			"subtitle": "Pink Floyd",
			"sections": [
				{"metadata": [{"title": "Label", "text": "Harvest"}]},
				{"metadata": [
					{"title": "Album", "text": "Meddle"},
					{"title": "Released", "text": "1971"}
				]}
			],
			"images": {"coverarthq": "http://x/cover-hq.jpg", "coverart": "http://x/cover.jpg"}
		}
	}`
	server := recognizerServer(t, http.StatusOK, body)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	track := client.Recognize(context.Background(), writeSample(t))

	want := models.Track{
		Title:  "Echoes",
		Artist: "Pink Floyd",
		Album:  "Meddle",
		Cover:  "http://x/cover-hq.jpg",
	}
	if track != want {
		t.Fatalf("unexpected track %+v, want %+v", track, want)
	}
}

func TestRecognizeSubmitsSampleBytes(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"track":{"title":"Echoes","subtitle":"Pink Floyd"}}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	client.Recognize(context.Background(), writeSample(t))

	if string(received) != "fake-audio-bytes" {
		t.Fatalf("expected sample bytes to be submitted, got %q", received)
	}
}

func TestRecognizeAlbumFirstMatchWins(t *testing.T) {
	body := `{
		"track": {
			"title": "Echoes",
			"subtitle": "Pink Floyd",
			"sections": [
				{"metadata": [{"title": "album", "text": "Meddle"}]},
				{"metadata": [{"title": "Album", "text": "A Later Compilation"}]}
			]
		}
	}`
	server := recognizerServer(t, http.StatusOK, body)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	track := client.Recognize(context.Background(), writeSample(t))

	if track.Album != "Meddle" {
		t.Fatalf("expected first album match to win, got %q", track.Album)
	}
}

func TestRecognizeAlbumLabelIsCaseInsensitive(t *testing.T) {
	body := `{
		"track": {
			"title": "Echoes",
			"subtitle": "Pink Floyd",
			"sections": [{"metadata": [{"title": "ALBUM", "text": "Meddle"}]}]
		}
	}`
	server := recognizerServer(t, http.StatusOK, body)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); track.Album != "Meddle" {
		t.Fatalf("expected case-insensitive album match, got %q", track.Album)
	}
}

func TestRecognizeDefaultsForMissingFields(t *testing.T) {
	server := recognizerServer(t, http.StatusOK, `{"track":{}}`)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	track := client.Recognize(context.Background(), writeSample(t))

	if track.Title != "Unknown" || track.Artist != "Unknown" || track.Album != "Unknown" {
		t.Fatalf("expected Unknown defaults, got %+v", track)
	}
	if track.Cover != "" {
		t.Fatalf("expected empty cover, got %q", track.Cover)
	}
}

func TestRecognizeCoverQualityFallback(t *testing.T) {
	body := `{
		"track": {
			"title": "Echoes",
			"subtitle": "Pink Floyd",
			"images": {"coverart": "http://x/cover.jpg"}
		}
	}`
	server := recognizerServer(t, http.StatusOK, body)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); track.Cover != "http://x/cover.jpg" {
		t.Fatalf("expected standard-quality cover fallback, got %q", track.Cover)
	}
}

func TestRecognizeNoMatchIsZeroTrack(t *testing.T) {
	server := recognizerServer(t, http.StatusOK, `{}`)

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); !track.IsZero() {
		t.Fatalf("expected zero track on no match, got %+v", track)
	}
}

func TestRecognizeServiceErrorIsZeroTrack(t *testing.T) {
	server := recognizerServer(t, http.StatusInternalServerError, "boom")

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); !track.IsZero() {
		t.Fatalf("expected zero track on service error, got %+v", track)
	}
}

func TestRecognizeMalformedResponseIsZeroTrack(t *testing.T) {
	server := recognizerServer(t, http.StatusOK, "not json at all")

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); !track.IsZero() {
		t.Fatalf("expected zero track on malformed response, got %+v", track)
	}
}

func TestRecognizeUnreachableServiceIsZeroTrack(t *testing.T) {
	server := recognizerServer(t, http.StatusOK, "{}")
	server.Close()

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), writeSample(t)); !track.IsZero() {
		t.Fatalf("expected zero track when service unreachable, got %+v", track)
	}
}

func TestRecognizeMissingSampleFileIsZeroTrack(t *testing.T) {
	server := recognizerServer(t, http.StatusOK, "{}")

	client := NewClient(server.URL, log.New(io.Discard, "", 0))
	if track := client.Recognize(context.Background(), "/does/not/exist.wav"); !track.IsZero() {
		t.Fatalf("expected zero track for missing sample, got %+v", track)
	}
}
