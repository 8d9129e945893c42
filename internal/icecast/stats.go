package icecast

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const statsTimeout = 5 * time.Second

// Stats queries the Icecast status endpoint for the current audience size.
type Stats struct {
	url    string
	client *http.Client
	logger *log.Logger
}

// NewStats creates a Stats probe for the given status-json.xsl URL.
func NewStats(url string, logger *log.Logger) *Stats {
	if logger == nil {
		logger = log.Default()
	}
	return &Stats{
		url:    url,
		client: &http.Client{Timeout: statsTimeout},
		logger: logger,
	}
}

// The source entry is a single object when one mount is active and a list
// when there are several; listeners may be absent entirely.
type statsDocument struct {
	Icestats struct {
		Source sourceList `json:"source"`
	} `json:"icestats"`
}

type sourceEntry struct {
	Listeners int `json:"listeners"`
}

type sourceList []sourceEntry

func (s *sourceList) UnmarshalJSON(data []byte) error {
	var many []sourceEntry
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}

	var one sourceEntry
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = sourceList{one}
	return nil
}

// ListenerCount returns the total listener count summed across all sources.
// Any transport or decode failure is logged and reported as zero; the probe
// never fails upward.
func (s *Stats) ListenerCount(ctx context.Context) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		s.logger.Printf("could not fetch icecast stats: %v", err)
		return 0
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Printf("could not fetch icecast stats: %v", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Printf("icecast stats returned HTTP %d", resp.StatusCode)
		return 0
	}

	var doc statsDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		s.logger.Printf("could not parse icecast stats: %v", err)
		return 0
	}

	total := 0
	for _, source := range doc.Icestats.Source {
		total += source.Listeners
	}
	return total
}
