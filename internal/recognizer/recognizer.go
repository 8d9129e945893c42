package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/henrikbla/vinylstreamer-shazam/internal/models"
)

const (
	recognizeTimeout = 30 * time.Second
	unknownField     = "Unknown"
)

// Client submits audio samples to the recognition service and extracts track
// metadata from its response. Recognition faults never propagate: any error
// or no-match degrades to the zero Track.
type Client struct {
	url    string
	client *http.Client
	logger *log.Logger
}

// NewClient creates a recognition client for the given service endpoint.
func NewClient(url string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: recognizeTimeout},
		logger: logger,
	}
}

type recognizeResponse struct {
	Track *struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		Sections []struct {
			Metadata []struct {
				Title string `json:"title"`
				Text  string `json:"text"`
			} `json:"metadata"`
		} `json:"sections"`
		Images struct {
			CoverArtHQ string `json:"coverarthq"`
			CoverArt   string `json:"coverart"`
		} `json:"images"`
	} `json:"track"`
}

// Recognize submits the audio file at audioPath and returns the identified
// track, or the zero Track when nothing was identified or the service could
// not be reached.
func (c *Client) Recognize(ctx context.Context, audioPath string) models.Track {
	result, err := c.submit(ctx, audioPath)
	if err != nil {
		c.logger.Printf("recognition failed: %v", err)
		return models.Track{}
	}
	if result.Track == nil {
		return models.Track{}
	}

	track := models.Track{
		Title:  result.Track.Title,
		Artist: result.Track.Subtitle,
		Album:  unknownField,
	}
	if track.Title == "" {
		track.Title = unknownField
	}
	if track.Artist == "" {
		track.Artist = unknownField
	}

	// First metadata entry labelled "album" wins, scanning sections and
	// entries in response order.
scan:
	for _, section := range result.Track.Sections {
		for _, meta := range section.Metadata {
			if strings.EqualFold(meta.Title, "album") {
				if meta.Text != "" {
					track.Album = meta.Text
				}
				break scan
			}
		}
	}

	track.Cover = result.Track.Images.CoverArtHQ
	if track.Cover == "" {
		track.Cover = result.Track.Images.CoverArt
	}

	return track
}

func (c *Client) submit(ctx context.Context, audioPath string) (recognizeResponse, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return recognizeResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(audio))
	if err != nil {
		return recognizeResponse{}, err
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return recognizeResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return recognizeResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return recognizeResponse{}, fmt.Errorf("recognition service returned HTTP %d", resp.StatusCode)
	}

	var result recognizeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return recognizeResponse{}, fmt.Errorf("could not parse recognition response: %w", err)
	}
	return result, nil
}
