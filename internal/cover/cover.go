package cover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	downloadTimeout = 10 * time.Second

	// Some art hosts refuse requests without a browser-like agent.
	userAgent = "Mozilla/5.0"
)

// Publisher downloads cover art and exposes it at a fixed local path which
// the broadcast server serves directly. Replacement is atomic so a reader of
// the public path never observes a partial image.
type Publisher struct {
	path   string
	client *http.Client
}

// NewPublisher creates a Publisher for the given local cover path.
func NewPublisher(path string) *Publisher {
	return &Publisher{
		path:   path,
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// Publish downloads the image at url and replaces the published cover with
// it. On any failure the temp file is removed and the previously published
// image is left untouched.
func (p *Publisher) Publish(ctx context.Context, url string) (err error) {
	if url == "" {
		return errors.New("no cover URL")
	}

	tmpPath := p.path + ".tmp"
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover download returned HTTP %d", resp.StatusCode)
	}

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if _, err = io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, p.path)
}

// Clear removes the published cover so the page falls back to its
// placeholder. An already absent file is not an error.
func (p *Publisher) Clear() error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
