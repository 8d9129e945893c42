package icecast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const metadataTimeout = 5 * time.Second

// Metadata pushes song information into the stream's StreamTitle and
// StreamUrl tags through the Icecast admin interface.
type Metadata struct {
	adminURL string
	mount    string
	user     string
	password string
	client   *http.Client
}

// NewMetadata creates a Metadata publisher for the given admin endpoint and
// mount, authenticating with the supplied credentials.
func NewMetadata(adminURL, mount, user, password string) *Metadata {
	return &Metadata{
		adminURL: adminURL,
		mount:    mount,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: metadataTimeout},
	}
}

// Update sets the displayed song string and, when coverURL is non-empty, the
// stream's artwork URL. Best effort: a non-200 response is an error for the
// caller to log, nothing is retried.
func (m *Metadata) Update(ctx context.Context, song, coverURL string) error {
	params := url.Values{}
	params.Set("mount", m.mount)
	params.Set("mode", "updinfo")
	params.Set("song", song)
	if coverURL != "" {
		params.Set("url", coverURL)
	}

	endpoint := m.adminURL + "/metadata?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.user, m.password)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata update returned HTTP %d", resp.StatusCode)
	}
	return nil
}
